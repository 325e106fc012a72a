package outreachService

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"WhatsappReminder/internal/api/outreach"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"WhatsappReminder/pkg/nlp"
	"WhatsappReminder/pkg/s3"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var errMediaMissing = errors.New("media asset not found")

func (s *outreachService) HandleInbound(ctx context.Context, from string, body string) outreach.Outcome {
	requestID := contextPkg.GetRequestID(ctx)
	id := entity.ContactIDFromAddress(from)

	if !s.allowList.Contains(id) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
		}).Info("Suppressed delivery for contact outside the allow-list")
		return outreach.OutcomeSuppressed
	}

	state, err := s.store.Get(ctx, id)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
			"error":      err.Error(),
		}).Error("Failed to read conversation state")
		return outreach.OutcomeStoreError
	}
	if state.IsResolved() {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
			"state":      state.String(),
		}).Debug("Contact already resolved, ignoring message")
		return outreach.OutcomeResolved
	}

	intent := s.classifier.Classify(body)
	if intent == nlp.IntentUnrecognized {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
		}).Info("Message not classified, ignored")
		return outreach.OutcomeUnrecognized
	}

	next := entity.StatePositive
	if intent == nlp.IntentNegative {
		next = entity.StateNegative
	}

	won, err := s.store.TransitionIfUnset(ctx, id, next)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
			"error":      err.Error(),
		}).Error("Failed to record conversation state")
		return outreach.OutcomeStoreError
	}
	if !won {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
		}).Debug("Conversation state already set by a concurrent message")
		return outreach.OutcomeLostRace
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"contact":    id,
		"state":      next.String(),
	}).Info("Conversation state resolved")

	if next == entity.StateNegative {
		s.step(ctx, id, "negative_reply", func() error {
			return s.gateway.SendText(ctx, id, s.content.NegativeReply)
		})
		return outreach.OutcomeNegative
	}

	s.step(ctx, id, "affirmative_reply", func() error {
		return s.gateway.SendText(ctx, id, s.content.AffirmativeReply)
	})
	s.step(ctx, id, "document", func() error {
		return s.sendAsset(ctx, id, s.content.Document)
	})
	s.step(ctx, id, "image", func() error {
		return s.sendAsset(ctx, id, s.content.Image)
	})
	s.step(ctx, id, "choice_prompt", func() error {
		return s.gateway.SendChoicePrompt(ctx, id, whatsapp.ChoicePrompt{
			Prompt:  s.content.Prompt.Text,
			Options: s.content.Prompt.Options,
			Title:   s.content.Prompt.Title,
			Footer:  s.content.Prompt.Footer,
		})
	})

	return outreach.OutcomeAffirmative
}

// step runs one dispatch of the follow-up sequence. Errors and panics stay
// inside the step so the remaining steps still run.
func (s *outreachService) step(ctx context.Context, id string, name string, fn func() error) {
	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"contact":    id,
		"step":       name,
	}

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		switch {
		case errors.Is(err, errMediaMissing):
			fields["error"] = err.Error()
			s.log.WithFields(fields).Warn("Media asset missing, step skipped")
			return
		case err != nil:
			fields["error"] = err.Error()
			s.log.WithFields(fields).Error("Outreach step failed")
		default:
			s.log.WithFields(fields).Debug("Outreach step sent")
		}
		s.recordDispatch("outreach_"+name, err)
	}()

	err = fn()
}

func (s *outreachService) sendAsset(ctx context.Context, id string, asset outreach.MediaAsset) error {
	if asset.Path == "" {
		return errMediaMissing
	}

	data, err := s.loadAsset(asset.Path)
	if err != nil {
		return err
	}

	return s.gateway.SendMedia(ctx, id, whatsapp.Media{
		MimeType: mimeTypeOf(asset.Path),
		Base64:   s.utils.EncodeBase64(data),
		Caption:  asset.Caption,
		FileName: filepath.Base(asset.Path),
	})
}

func (s *outreachService) loadAsset(path string) ([]byte, error) {
	if s3.IsURI(path) {
		if s.s3 == nil {
			return nil, fmt.Errorf("%w: no s3 client for %s", errMediaMissing, path)
		}
		return s.s3.Download(path)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errMediaMissing, path)
	}
	return data, err
}

func mimeTypeOf(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
