package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

const (
	SessionDriverSQLite   = "sqlite3"
	SessionDriverPostgres = "postgres"

	eventBufferSize = 64
	uploadTimeout   = 60 * time.Second
)

type Config struct {
	SessionDriver string
	SessionDir    string
	PostgresDSN   string
	PrintQR       bool
}

type whatsappSender struct {
	client *whatsmeow.Client
	log    *logrus.Logger
	cfg    Config

	events    chan Event
	closed    chan struct{}
	closeOnce sync.Once

	qrMu   sync.RWMutex
	qrCode string
}

func New(ctx context.Context, cfg Config, logger *logrus.Logger) (IWhatsappSender, error) {
	driver, dsn, err := sessionDSN(cfg)
	if err != nil {
		return nil, err
	}

	container, err := sqlstore.New(ctx, driver, dsn, newLogger(logger, "Database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	w := &whatsappSender{
		client: whatsmeow.NewClient(deviceStore, newLogger(logger, "Client")),
		log:    logger,
		cfg:    cfg,
		events: make(chan Event, eventBufferSize),
		closed: make(chan struct{}),
	}
	w.client.AddEventHandler(w.handleEvent)

	if w.client.Store.ID == nil {
		qrChan, err := w.client.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get qr channel: %w", err)
		}
		if err := w.client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		go w.consumeQR(qrChan)
	} else {
		if err := w.client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
	}

	return w, nil
}

func sessionDSN(cfg Config) (string, string, error) {
	switch cfg.SessionDriver {
	case "", SessionDriverSQLite:
		dir := cfg.SessionDir
		if dir == "" {
			dir = ".wa_session"
		}
		return SessionDriverSQLite, fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(dir, "whatsapp.db")), nil
	case SessionDriverPostgres:
		if cfg.PostgresDSN == "" {
			return "", "", fmt.Errorf("postgres session driver requires a dsn")
		}
		return SessionDriverPostgres, cfg.PostgresDSN, nil
	default:
		return "", "", fmt.Errorf("unsupported session driver %q", cfg.SessionDriver)
	}
}

func (w *whatsappSender) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			w.setQRCode(evt.Code)
			if w.cfg.PrintQR {
				w.log.Info("Scan this QR code with WhatsApp")
				PrintQR(evt.Code, os.Stdout)
			}
			w.publish(Event{Type: EventQR, Code: evt.Code})
		case "success":
			w.setQRCode("")
			w.log.Info("QR pairing succeeded")
		default:
			w.setQRCode("")
			reason := evt.Event
			if evt.Error != nil {
				reason = fmt.Sprintf("%s: %v", evt.Event, evt.Error)
			}
			w.publish(Event{Type: EventAuthFailure, Reason: reason})
		}
	}
}

func (w *whatsappSender) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		if v.Info.IsFromMe || v.Info.IsGroup {
			return
		}
		body := extractText(v.Message)
		if body == "" {
			return
		}
		var resolve lidResolver
		if w.client.Store.LIDs != nil {
			resolve = w.client.Store.LIDs.GetPNForLID
		}
		from, ok := extractSender(context.Background(), v.Info.Sender, resolve)
		if !ok {
			w.log.WithFields(logrus.Fields{
				"sender":     v.Info.Sender.String(),
				"message_id": v.Info.ID,
			}).Warn("Could not resolve LID sender to a phone number, message dropped")
			return
		}
		w.publish(Event{
			Type: EventMessage,
			From: from,
			Body: body,
		})
	case *events.Connected:
		w.setQRCode("")
		w.publish(Event{Type: EventReady})
	case *events.Disconnected:
		w.publish(Event{Type: EventDisconnected, Reason: "connection closed"})
	case *events.StreamReplaced:
		w.publish(Event{Type: EventDisconnected, Reason: "stream replaced by another session"})
	case *events.LoggedOut:
		w.publish(Event{Type: EventLoggedOut, Reason: v.Reason.String()})
	case *events.ConnectFailure:
		w.publish(Event{Type: EventAuthFailure, Reason: v.Reason.String()})
	}
}

type lidResolver func(ctx context.Context, lid types.JID) (types.JID, error)

// extractSender returns the phone-number JID of a message sender. Senders
// addressed by LID are mapped through resolve; ok is false when no phone
// number is known for them.
func extractSender(ctx context.Context, sender types.JID, resolve lidResolver) (string, bool) {
	if sender.Server != types.HiddenUserServer {
		return sender.ToNonAD().String(), true
	}
	if resolve == nil {
		return "", false
	}

	pn, err := resolve(ctx, sender.ToNonAD())
	if err != nil || pn.User == "" {
		return "", false
	}
	return types.NewJID(pn.User, types.DefaultUserServer).String(), true
}

func extractText(msg *waProto.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if resp := msg.GetButtonsResponseMessage(); resp != nil {
		return resp.GetSelectedDisplayText()
	}
	if resp := msg.GetListResponseMessage(); resp != nil {
		return resp.GetTitle()
	}
	return ""
}

func (w *whatsappSender) publish(evt Event) {
	select {
	case w.events <- evt:
	case <-w.closed:
	}
}

func (w *whatsappSender) setQRCode(code string) {
	w.qrMu.Lock()
	w.qrCode = code
	w.qrMu.Unlock()
}

func (w *whatsappSender) QRCode() string {
	w.qrMu.RLock()
	defer w.qrMu.RUnlock()
	return w.qrCode
}

func (w *whatsappSender) Events() <-chan Event {
	return w.events
}

func (w *whatsappSender) IsKnownContact(ctx context.Context, phoneNumber string) (bool, error) {
	if !w.client.IsConnected() {
		return false, ErrNotConnected
	}

	results, err := w.client.IsOnWhatsApp([]string{"+" + strings.TrimPrefix(phoneNumber, "+")})
	if err != nil {
		return false, fmt.Errorf("failed to check contact: %w", err)
	}
	if len(results) == 0 {
		return false, ErrEmptyResponse
	}

	return results[0].IsIn, nil
}

func (w *whatsappSender) SendText(ctx context.Context, phoneNumber, message string) error {
	waMsg := &waProto.Message{
		Conversation: proto.String(message),
	}
	return w.send(ctx, phoneNumber, waMsg)
}

func (w *whatsappSender) SendMedia(ctx context.Context, phoneNumber string, media Media) error {
	data, err := base64.StdEncoding.DecodeString(media.Base64)
	if err != nil || len(data) == 0 {
		return ErrInvalidMedia
	}

	mediaType := mediaTypeFor(media.MimeType)

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	resp, err := w.client.Upload(uploadCtx, data, mediaType)
	if err != nil {
		return fmt.Errorf("failed to upload media: %w", err)
	}

	waMsg := &waProto.Message{}
	switch mediaType {
	case whatsmeow.MediaImage:
		waMsg.ImageMessage = &waProto.ImageMessage{
			Caption:       proto.String(media.Caption),
			Mimetype:      proto.String(media.MimeType),
			URL:           &resp.URL,
			DirectPath:    &resp.DirectPath,
			MediaKey:      resp.MediaKey,
			FileEncSHA256: resp.FileEncSHA256,
			FileSHA256:    resp.FileSHA256,
			FileLength:    &resp.FileLength,
		}
	case whatsmeow.MediaVideo:
		waMsg.VideoMessage = &waProto.VideoMessage{
			Caption:       proto.String(media.Caption),
			Mimetype:      proto.String(media.MimeType),
			URL:           &resp.URL,
			DirectPath:    &resp.DirectPath,
			MediaKey:      resp.MediaKey,
			FileEncSHA256: resp.FileEncSHA256,
			FileSHA256:    resp.FileSHA256,
			FileLength:    &resp.FileLength,
		}
	case whatsmeow.MediaAudio:
		waMsg.AudioMessage = &waProto.AudioMessage{
			Mimetype:      proto.String(media.MimeType),
			URL:           &resp.URL,
			DirectPath:    &resp.DirectPath,
			MediaKey:      resp.MediaKey,
			FileEncSHA256: resp.FileEncSHA256,
			FileSHA256:    resp.FileSHA256,
			FileLength:    &resp.FileLength,
		}
	default:
		fileName := media.FileName
		if fileName == "" {
			fileName = "document"
		}
		waMsg.DocumentMessage = &waProto.DocumentMessage{
			Title:         proto.String(fileName),
			FileName:      proto.String(fileName),
			Caption:       proto.String(media.Caption),
			Mimetype:      proto.String(media.MimeType),
			URL:           &resp.URL,
			DirectPath:    &resp.DirectPath,
			MediaKey:      resp.MediaKey,
			FileEncSHA256: resp.FileEncSHA256,
			FileSHA256:    resp.FileSHA256,
			FileLength:    &resp.FileLength,
		}
	}

	return w.send(ctx, phoneNumber, waMsg)
}

func mediaTypeFor(mimeType string) whatsmeow.MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return whatsmeow.MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return whatsmeow.MediaVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return whatsmeow.MediaAudio
	default:
		return whatsmeow.MediaDocument
	}
}

func (w *whatsappSender) SendChoicePrompt(ctx context.Context, phoneNumber string, prompt ChoicePrompt) error {
	buttons := make([]*waProto.ButtonsMessage_Button, 0, len(prompt.Options))
	for i, option := range prompt.Options {
		buttons = append(buttons, &waProto.ButtonsMessage_Button{
			ButtonID: proto.String(fmt.Sprintf("option-%d", i+1)),
			ButtonText: &waProto.ButtonsMessage_Button_ButtonText{
				DisplayText: proto.String(option),
			},
			Type: waProto.ButtonsMessage_Button_RESPONSE.Enum(),
		})
	}

	content := prompt.Prompt
	if prompt.Title != "" {
		content = fmt.Sprintf("*%s*\n\n%s", prompt.Title, prompt.Prompt)
	}

	waMsg := &waProto.Message{
		ButtonsMessage: &waProto.ButtonsMessage{
			ContentText: proto.String(content),
			FooterText:  proto.String(prompt.Footer),
			HeaderType:  waProto.ButtonsMessage_EMPTY.Enum(),
			Buttons:     buttons,
		},
	}

	return w.send(ctx, phoneNumber, waMsg)
}

func (w *whatsappSender) send(ctx context.Context, phoneNumber string, waMsg *waProto.Message) error {
	if !w.client.IsConnected() {
		return ErrNotConnected
	}

	jid := types.NewJID(strings.TrimPrefix(phoneNumber, "+"), types.DefaultUserServer)

	_, err := w.client.SendMessage(ctx, jid, waMsg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (w *whatsappSender) Disconnect() error {
	w.closeOnce.Do(func() {
		close(w.closed)
		w.client.Disconnect()
	})
	return nil
}

func (w *whatsappSender) IsConnected() bool {
	return w.client.IsConnected()
}
