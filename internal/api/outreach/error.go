package outreach

import "WhatsappReminder/pkg/response"

var (
	ErrRecipientNotRegistered = response.NewError(400, "recipient is not registered on whatsapp")
	ErrMalformedMedia         = response.NewError(400, "malformed base64 media")
	ErrInvalidRecipient       = response.NewError(400, "invalid recipient")
	ErrDispatchFailed         = response.NewError(500, "failed to dispatch message")
)
