package outreach

type SendRequest struct {
	Recipient   string `json:"recipient" validate:"required"`
	Message     string `json:"message" validate:"required_without=MediaBase64"`
	MediaBase64 string `json:"mediaBase64"`
}

type SendResponse struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient"`
}

type Outcome string

const (
	OutcomeSuppressed   Outcome = "suppressed"
	OutcomeResolved     Outcome = "already_resolved"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeAffirmative  Outcome = "affirmative"
	OutcomeNegative     Outcome = "negative"
	OutcomeLostRace     Outcome = "lost_race"
	OutcomeConfirmation Outcome = "confirmation"
	OutcomeStoreError   Outcome = "store_error"
)
