// Package dispatch routes gateway events to the outreach and reminder
// services.
package dispatch

import (
	"fmt"
	"time"

	"WhatsappReminder/internal/api/outreach"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"WhatsappReminder/pkg/metrics"
	"WhatsappReminder/pkg/utils"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type Confirmer interface {
	HandleConfirmation(ctx context.Context, from string, body string) (bool, error)
}

type InboundHandler interface {
	HandleInbound(ctx context.Context, from string, body string) outreach.Outcome
}

type AllowList interface {
	Contains(id string) bool
}

type Loop struct {
	events    <-chan whatsapp.Event
	allowList AllowList
	confirmer Confirmer
	inbound   InboundHandler
	utils     utils.IUtils
	metrics   metrics.IMetrics
	log       *logrus.Logger
}

// New builds the loop. confirmer may be nil when reminders are disabled.
func New(
	log *logrus.Logger,
	events <-chan whatsapp.Event,
	allowList AllowList,
	confirmer Confirmer,
	inbound InboundHandler,
	utils utils.IUtils,
	m metrics.IMetrics,
) *Loop {
	return &Loop{
		events:    events,
		allowList: allowList,
		confirmer: confirmer,
		inbound:   inbound,
		utils:     utils,
		metrics:   m,
		log:       log,
	}
}

// Run handles events one at a time until ctx is done or the gateway closes
// its event channel.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.events:
			if !ok {
				l.log.Info("Gateway event stream closed")
				return
			}
			l.handle(ctx, evt)
		}
	}
}

func (l *Loop) handle(ctx context.Context, evt whatsapp.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{
				"event": string(evt.Type),
				"panic": fmt.Sprint(r),
			}).Error("Recovered panic while handling gateway event")
		}
	}()

	switch evt.Type {
	case whatsapp.EventMessage:
		l.handleMessage(ctx, evt)
	case whatsapp.EventQR:
		l.log.Info("New pairing QR available, open /qr or scan the terminal code")
	case whatsapp.EventReady:
		l.log.Info("WhatsApp client is ready")
	case whatsapp.EventAuthFailure:
		l.log.WithField("reason", evt.Reason).Error("WhatsApp authentication failed")
	case whatsapp.EventDisconnected:
		l.log.WithField("reason", evt.Reason).Warn("WhatsApp client disconnected")
	case whatsapp.EventLoggedOut:
		l.log.WithField("reason", evt.Reason).Error("WhatsApp session logged out, a new pairing is required")
	default:
		l.log.WithField("event", string(evt.Type)).Debug("Unhandled gateway event")
	}
}

func (l *Loop) handleMessage(ctx context.Context, evt whatsapp.Event) {
	requestID, err := l.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		requestID = "unknown"
	}
	ctx = contextPkg.WithRequestID(ctx, requestID)

	id := entity.ContactIDFromAddress(evt.From)
	l.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"contact":    id,
	}).Debug("Inbound message received")

	if l.confirmer != nil && l.allowList.Contains(id) {
		handled, err := l.confirmer.HandleConfirmation(ctx, evt.From, evt.Body)
		if err != nil {
			l.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"contact":    id,
				"error":      err.Error(),
			}).Error("Failed to register confirmation")
			l.recordInbound(outreach.OutcomeStoreError)
			return
		}
		if handled {
			l.recordInbound(outreach.OutcomeConfirmation)
			return
		}
	}

	l.recordInbound(l.inbound.HandleInbound(ctx, evt.From, evt.Body))
}

func (l *Loop) recordInbound(outcome outreach.Outcome) {
	if l.metrics != nil {
		l.metrics.RecordInbound(string(outcome))
	}
}
