package reminder

import "WhatsappReminder/pkg/response"

var (
	ErrReminderNotFound = response.NewError(404, "reminder not found")
	ErrInvalidReminder  = response.NewError(400, "invalid reminder id")
	ErrInvalidAnswer    = response.NewError(400, "answer must be SI or NO")
	ErrTickInProgress   = response.NewError(409, "a reminder tick is already running")
	ErrStoreUnavailable = response.NewError(503, "event store unavailable")
)
