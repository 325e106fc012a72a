package outreachService

import (
	"fmt"
	"strings"

	"WhatsappReminder/internal/api/outreach"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Send delivers an operator-initiated message. It bypasses the allow-list and
// the conversation state.
func (s *outreachService) Send(ctx context.Context, req outreach.SendRequest) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	recipient := entity.OnlyDigits(req.Recipient)
	if !entity.IsContactID(recipient) {
		return "", outreach.ErrInvalidRecipient
	}

	var media *whatsapp.Media
	if req.MediaBase64 != "" {
		mimeType, payload, err := s.utils.ParseDataURL(req.MediaBase64)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"recipient":  recipient,
			}).Warn("Rejected malformed media payload")
			return "", outreach.ErrMalformedMedia
		}
		media = &whatsapp.Media{
			MimeType: mimeType,
			Base64:   payload,
			Caption:  req.Message,
			FileName: "archivo" + extensionFor(mimeType),
		}
	}

	registered, err := s.gateway.IsKnownContact(ctx, recipient)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"recipient":  recipient,
			"error":      err.Error(),
		}).Error("Failed to check recipient registration")
		return "", fmt.Errorf("%w: %w", outreach.ErrDispatchFailed, err)
	}
	if !registered {
		return "", outreach.ErrRecipientNotRegistered
	}

	if media != nil {
		err = s.gateway.SendMedia(ctx, recipient, *media)
	} else {
		err = s.gateway.SendText(ctx, recipient, req.Message)
	}
	s.recordDispatch("http_send", err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"recipient":  recipient,
			"error":      err.Error(),
		}).Error("Failed to send message")
		return "", fmt.Errorf("%w: %w", outreach.ErrDispatchFailed, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"recipient":  recipient,
		"with_media": media != nil,
	}).Info("Message sent")

	return recipient, nil
}

// PairingQR returns the pending pairing code as a PNG data URL, or an empty
// string when no pairing is in progress.
func (s *outreachService) PairingQR(ctx context.Context) (string, bool, error) {
	code := s.gateway.QRCode()
	if code == "" {
		return "", s.gateway.IsConnected(), nil
	}

	dataURL, err := whatsapp.RenderQRDataURL(code)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to render pairing QR")
		return "", false, err
	}

	return dataURL, s.gateway.IsConnected(), nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "." + strings.TrimPrefix(mimeType, "image/")
	case mimeType == "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
