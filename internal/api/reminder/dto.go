package reminder

import (
	"time"

	"WhatsappReminder/internal/entity"
)

type TickResult struct {
	Candidates int `json:"candidates"`
	Eligible   int `json:"eligible"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

type ReminderResponse struct {
	ID            int64      `json:"id"`
	CategoryID    int        `json:"category_id"`
	Category      string     `json:"category"`
	SubjectName   string     `json:"subject_name"`
	ContactPhone  string     `json:"contact_phone"`
	ScheduledDate string     `json:"scheduled_date"`
	ScheduledTime string     `json:"scheduled_time"`
	FormattedDate string     `json:"formatted_date"`
	FormattedTime string     `json:"formatted_time"`
	Sent          bool       `json:"sent"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Confirmed     string     `json:"confirmed,omitempty"`
}

type ConfirmRequest struct {
	Answer string `query:"answer" validate:"omitempty,max=8"`
}

// ConfirmPrompt is returned when a confirmation link is opened without an
// answer. Choices maps each accepted answer to the link that records it.
type ConfirmPrompt struct {
	Reminder ReminderResponse  `json:"reminder"`
	Choices  map[string]string `json:"choices"`
}

func NewReminderResponse(ev entity.ReminderEvent, loc *time.Location) ReminderResponse {
	date, clock := entity.FormatSchedule(ev.ScheduledDate, ev.ScheduledTime, loc)
	return ReminderResponse{
		ID:            ev.ID,
		CategoryID:    ev.CategoryID,
		Category:      ev.Category,
		SubjectName:   ev.SubjectName,
		ContactPhone:  ev.ContactPhone,
		ScheduledDate: ev.ScheduledDate,
		ScheduledTime: ev.ScheduledTime,
		FormattedDate: date,
		FormattedTime: clock,
		Sent:          ev.Sent,
		SentAt:        ev.SentAt,
		Confirmed:     ev.Confirmed,
	}
}
