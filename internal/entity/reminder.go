package entity

import "time"

type Confirmation string

const (
	ConfirmationYes Confirmation = "SI"
	ConfirmationNo  Confirmation = "NO"
)

func (c Confirmation) Valid() bool {
	return c == ConfirmationYes || c == ConfirmationNo
}

type ReminderEvent struct {
	ID            int64
	CategoryID    int
	Category      string
	SubjectName   string
	ContactPhone  string
	ScheduledDate string
	ScheduledTime string
	Sent          bool
	SentAt        *time.Time
	Confirmed     string
}
