// Package whatsapptest provides an in-memory gateway for tests.
package whatsapptest

import (
	"context"
	"sync"

	"WhatsappReminder/pkg/whatsapp"
)

type Kind string

const (
	KindText   Kind = "text"
	KindMedia  Kind = "media"
	KindPrompt Kind = "prompt"
)

type Sent struct {
	Kind   Kind
	To     string
	Text   string
	Media  whatsapp.Media
	Prompt whatsapp.ChoicePrompt
}

// FakeSender records every dispatch. Fail hooks let a test make a given
// kind of dispatch return an error or panic.
type FakeSender struct {
	mu        sync.Mutex
	sent      []Sent
	events    chan whatsapp.Event
	qrCode    string
	connected bool

	Registered map[string]bool
	KnownErr   error
	FailText   func(to, text string) error
	FailMedia  func(to string, media whatsapp.Media) error
	FailPrompt func(to string, prompt whatsapp.ChoicePrompt) error
}

func NewFakeSender() *FakeSender {
	return &FakeSender{
		events:     make(chan whatsapp.Event, 16),
		connected:  true,
		Registered: map[string]bool{},
	}
}

func (f *FakeSender) record(s Sent) {
	f.mu.Lock()
	f.sent = append(f.sent, s)
	f.mu.Unlock()
}

func (f *FakeSender) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}

func (f *FakeSender) SentTo(to string) []Sent {
	var out []Sent
	for _, s := range f.Sent() {
		if s.To == to {
			out = append(out, s)
		}
	}
	return out
}

func (f *FakeSender) IsKnownContact(_ context.Context, phoneNumber string) (bool, error) {
	if f.KnownErr != nil {
		return false, f.KnownErr
	}
	return f.Registered[phoneNumber], nil
}

func (f *FakeSender) SendText(_ context.Context, phoneNumber, message string) error {
	if f.FailText != nil {
		if err := f.FailText(phoneNumber, message); err != nil {
			return err
		}
	}
	f.record(Sent{Kind: KindText, To: phoneNumber, Text: message})
	return nil
}

func (f *FakeSender) SendMedia(_ context.Context, phoneNumber string, media whatsapp.Media) error {
	if f.FailMedia != nil {
		if err := f.FailMedia(phoneNumber, media); err != nil {
			return err
		}
	}
	f.record(Sent{Kind: KindMedia, To: phoneNumber, Media: media, Text: media.Caption})
	return nil
}

func (f *FakeSender) SendChoicePrompt(_ context.Context, phoneNumber string, prompt whatsapp.ChoicePrompt) error {
	if f.FailPrompt != nil {
		if err := f.FailPrompt(phoneNumber, prompt); err != nil {
			return err
		}
	}
	f.record(Sent{Kind: KindPrompt, To: phoneNumber, Prompt: prompt, Text: prompt.Prompt})
	return nil
}

// Emit queues an inbound event for Events consumers.
func (f *FakeSender) Emit(evt whatsapp.Event) {
	f.events <- evt
}

// CloseEvents ends the event stream.
func (f *FakeSender) CloseEvents() {
	close(f.events)
}

func (f *FakeSender) Events() <-chan whatsapp.Event {
	return f.events
}

func (f *FakeSender) SetQRCode(code string) {
	f.mu.Lock()
	f.qrCode = code
	f.mu.Unlock()
}

func (f *FakeSender) QRCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qrCode
}

func (f *FakeSender) SetConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *FakeSender) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeSender) Disconnect() error {
	f.SetConnected(false)
	return nil
}

var _ whatsapp.IWhatsappSender = (*FakeSender)(nil)
