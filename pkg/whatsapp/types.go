package whatsapp

import (
	"context"
	"errors"
)

var (
	ErrNotConnected  = errors.New("whatsapp client is not connected")
	ErrInvalidMedia  = errors.New("invalid media payload")
	ErrEmptyResponse = errors.New("empty response from whatsapp")
)

type EventType string

const (
	EventMessage      EventType = "message"
	EventQR           EventType = "qr"
	EventReady        EventType = "ready"
	EventAuthFailure  EventType = "auth_failure"
	EventDisconnected EventType = "disconnected"
	EventLoggedOut    EventType = "logged_out"
)

// Event is the single tagged value the gateway publishes. Only the fields
// relevant to Type are set.
type Event struct {
	Type   EventType
	From   string
	Body   string
	Code   string
	Reason string
}

type Media struct {
	MimeType string
	Base64   string
	Caption  string
	FileName string
}

type ChoicePrompt struct {
	Prompt  string
	Options []string
	Title   string
	Footer  string
}

type IWhatsappSender interface {
	IsKnownContact(ctx context.Context, phoneNumber string) (bool, error)
	SendText(ctx context.Context, phoneNumber, message string) error
	SendMedia(ctx context.Context, phoneNumber string, media Media) error
	SendChoicePrompt(ctx context.Context, phoneNumber string, prompt ChoicePrompt) error
	Events() <-chan Event
	QRCode() string
	Disconnect() error
	IsConnected() bool
}
