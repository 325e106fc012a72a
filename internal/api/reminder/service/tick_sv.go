package reminderService

import (
	"errors"
	"fmt"
	"time"

	"WhatsappReminder/internal/api/reminder"
	reminderRepository "WhatsappReminder/internal/api/reminder/repository"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var errStore = errors.New("event store")

// RunTick sends the reminders whose appointment falls inside the eligibility
// window. Ticks never overlap; a call made while another tick runs returns
// ErrTickInProgress without touching the store.
func (s *reminderService) RunTick(ctx context.Context) (reminder.TickResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		if s.metrics != nil {
			s.metrics.RecordTickSkipped()
		}
		s.log.Warn("Reminder tick still running, skipping")
		return reminder.TickResult{}, reminder.ErrTickInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	tickID, err := s.utils.NewULIDFromTimestamp(start)
	if err != nil {
		tickID = start.Format(time.RFC3339Nano)
	}
	ctx = contextPkg.WithTickID(ctx, tickID)

	result, err := s.runTick(ctx)
	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(start), result.Dispatched, err)
	}

	fields := logrus.Fields{
		"tick_id":    tickID,
		"candidates": result.Candidates,
		"eligible":   result.Eligible,
		"dispatched": result.Dispatched,
		"failed":     result.Failed,
	}
	if err != nil {
		fields["error"] = err.Error()
		s.log.WithFields(fields).Error("Reminder tick aborted")
		return result, err
	}
	if result.Eligible > 0 {
		s.log.WithFields(fields).Info("Reminder tick finished")
	} else {
		s.log.WithFields(fields).Debug("Reminder tick finished")
	}

	return result, nil
}

func (s *reminderService) runTick(ctx context.Context) (result reminder.TickResult, err error) {
	client, err := s.reminderRepository.NewClient(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %v", reminder.ErrStoreUnavailable, err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			s.log.WithFields(logrus.Fields{
				"tick_id": contextPkg.GetTickID(ctx),
				"error":   closeErr.Error(),
			}).Warn("Failed to release store connection")
		}
	}()

	now := s.now()
	dates := []string{now.Format("20060102"), now.AddDate(0, 0, 1).Format("20060102")}

	events, err := client.Reminder.GetPendingReminders(ctx, s.cfg.Categories, dates)
	if err != nil {
		return result, fmt.Errorf("%w: %v", reminder.ErrStoreUnavailable, err)
	}
	result.Candidates = len(events)

	for _, ev := range events {
		scheduled, err := entity.ParseSchedule(ev.ScheduledDate, ev.ScheduledTime, s.cfg.Location)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"tick_id":     contextPkg.GetTickID(ctx),
				"reminder_id": ev.ID,
				"error":       err.Error(),
			}).Debug("Reminder has no usable schedule")
			continue
		}
		if !s.cfg.Window.Contains(entity.MinutesUntil(scheduled, now)) {
			continue
		}
		result.Eligible++

		sent, err := s.processReminder(ctx, client, ev)
		if errors.Is(err, errStore) {
			return result, fmt.Errorf("%w: %v", reminder.ErrStoreUnavailable, err)
		}
		if sent {
			result.Dispatched++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

// processReminder handles one row. Dispatch failures and panics stay inside
// the row; only store failures are returned, wrapped in errStore.
func (s *reminderService) processReminder(ctx context.Context, client reminderRepository.Client, ev entity.ReminderEvent) (sent bool, err error) {
	fields := logrus.Fields{
		"tick_id":     contextPkg.GetTickID(ctx),
		"reminder_id": ev.ID,
	}

	defer func() {
		if r := recover(); r != nil {
			fields["panic"] = fmt.Sprint(r)
			s.log.WithFields(fields).Error("Recovered panic while processing reminder")
			sent, err = false, nil
		}
	}()

	if ev.ContactPhone == "" {
		s.log.WithFields(fields).Warn("Reminder has no contact phone, skipped")
		return false, nil
	}

	date, clock := entity.FormatSchedule(ev.ScheduledDate, ev.ScheduledTime, s.cfg.Location)
	customer := entity.InternationalNumber(ev.ContactPhone, s.cfg.CountryCode)
	fields["contact"] = customer

	message := reminder.CustomerMessage(ev, date, clock, reminder.ConfirmationLink(s.cfg.ConfirmationLink, ev.ID))
	sendErr := s.gateway.SendText(ctx, customer, message)
	s.recordDispatch("reminder_customer", sendErr)
	if sendErr != nil {
		fields["error"] = sendErr.Error()
		s.log.WithFields(fields).Error("Failed to send reminder to customer")
		return false, nil
	}

	if err := client.Reminder.MarkSent(ctx, ev.ID, s.cfg.Now()); err != nil {
		fields["error"] = err.Error()
		if errors.Is(err, reminder.ErrReminderNotFound) {
			s.log.WithFields(fields).Warn("Reminder sent but its row no longer exists")
			return false, nil
		}
		s.log.WithFields(fields).Error("Reminder sent but could not be marked as sent")
		return false, fmt.Errorf("%w: %v", errStore, err)
	}

	s.log.WithFields(fields).Info("Reminder sent to customer")

	if s.cfg.OperatorNumber != "" {
		operatorErr := s.gateway.SendText(ctx, s.cfg.OperatorNumber, reminder.OperatorMessage(ev, date, clock, customer))
		s.recordDispatch("reminder_operator", operatorErr)
		if operatorErr != nil {
			fields["error"] = operatorErr.Error()
			s.log.WithFields(fields).Error("Failed to send reminder copy to operator")
		}
	}

	return true, nil
}
