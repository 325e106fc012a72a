package reminderService

import (
	"WhatsappReminder/internal/api/reminder"
	"WhatsappReminder/internal/entity"
	contextPkg "WhatsappReminder/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// HandleConfirmation records an SI/NO reply. A reply carrying a reference
// ("SI 42") updates that reminder if it belongs to the sender; a bare reply
// updates the sender's most recently sent reminder scheduled today. It
// reports false when the body is not a confirmation or no reminder matched.
func (s *reminderService) HandleConfirmation(ctx context.Context, from string, body string) (bool, error) {
	answer, ref, ok := reminder.ParseConfirmation(body)
	if !ok {
		return false, nil
	}

	requestID := contextPkg.GetRequestID(ctx)
	id := entity.ContactIDFromAddress(from)
	phones := candidatePhones(id, s.cfg.CountryCode)

	client, err := s.reminderRepository.NewClient(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
			"error":      err.Error(),
		}).Error("Failed to open store for confirmation")
		return false, err
	}
	defer func() {
		_ = client.Close()
	}()

	now := s.now()
	var matched int64
	if ref > 0 {
		updated, err := client.Reminder.ConfirmByIDForPhone(ctx, ref, phones, answer, now)
		if err != nil {
			return false, err
		}
		if updated {
			matched = ref
		}
	} else {
		matched, err = client.Reminder.ConfirmLatestForPhone(ctx, phones, now.Format("20060102"), answer, now)
		if err != nil {
			return false, err
		}
	}

	if matched == 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"contact":    id,
			"answer":     string(answer),
			"reference":  ref,
		}).Info("No sent reminder matches the confirmation")
		return false, nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"contact":     id,
		"reminder_id": matched,
		"answer":      string(answer),
	}).Info("Confirmation registered")

	ackErr := s.gateway.SendText(ctx, id, reminder.AckFor(answer))
	s.recordDispatch("confirmation_ack", ackErr)
	if ackErr != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"contact":     id,
			"reminder_id": matched,
			"error":       ackErr.Error(),
		}).Error("Failed to acknowledge confirmation")
	}

	return true, nil
}

func (s *reminderService) ConfirmFromLink(ctx context.Context, id int64, rawAnswer string) (reminder.ReminderResponse, error) {
	if id <= 0 {
		return reminder.ReminderResponse{}, reminder.ErrInvalidReminder
	}
	answer, ok := reminder.ParseAnswer(rawAnswer)
	if !ok {
		return reminder.ReminderResponse{}, reminder.ErrInvalidAnswer
	}

	client, err := s.reminderRepository.NewClient(ctx)
	if err != nil {
		return reminder.ReminderResponse{}, err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reminder.ConfirmByID(ctx, id, answer, s.now()); err != nil {
		return reminder.ReminderResponse{}, err
	}

	ev, err := client.Reminder.GetReminderByID(ctx, id)
	if err != nil {
		return reminder.ReminderResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  contextPkg.GetRequestID(ctx),
		"reminder_id": id,
		"answer":      string(answer),
	}).Info("Confirmation registered from link")

	return reminder.NewReminderResponse(ev, s.cfg.Location), nil
}

func (s *reminderService) GetReminder(ctx context.Context, id int64) (reminder.ReminderResponse, error) {
	if id <= 0 {
		return reminder.ReminderResponse{}, reminder.ErrInvalidReminder
	}

	client, err := s.reminderRepository.NewClient(ctx)
	if err != nil {
		return reminder.ReminderResponse{}, err
	}
	defer func() {
		_ = client.Close()
	}()

	ev, err := client.Reminder.GetReminderByID(ctx, id)
	if err != nil {
		return reminder.ReminderResponse{}, err
	}

	return reminder.NewReminderResponse(ev, s.cfg.Location), nil
}

// candidatePhones lists the forms a stored phone may take for contact id:
// national number first, then the international one.
func candidatePhones(id string, countryCode string) []string {
	local := entity.StripCountryCode(id, countryCode)
	if local == id {
		return []string{id}
	}
	return []string{local, id}
}
