package entity

type ConversationState string

const (
	StateUnset    ConversationState = ""
	StatePositive ConversationState = "positive"
	StateNegative ConversationState = "negative"
)

func (s ConversationState) IsResolved() bool {
	return s == StatePositive || s == StateNegative
}

func (s ConversationState) String() string {
	if s == StateUnset {
		return "unset"
	}
	return string(s)
}

func ParseConversationState(raw string) ConversationState {
	switch ConversationState(raw) {
	case StatePositive:
		return StatePositive
	case StateNegative:
		return StateNegative
	default:
		return StateUnset
	}
}
