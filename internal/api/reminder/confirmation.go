package reminder

import (
	"regexp"
	"strconv"

	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/nlp"
)

var confirmationPattern = regexp.MustCompile(`^(SI|NO)(?:\s*#?\s*(\d+))?$`)

// ParseConfirmation recognizes "SI", "no", "Sí 42" or "NO #42". The second
// return value is the referenced reminder id, or zero when none was given.
func ParseConfirmation(body string) (entity.Confirmation, int64, bool) {
	matches := confirmationPattern.FindStringSubmatch(nlp.Token(body))
	if matches == nil {
		return "", 0, false
	}

	var ref int64
	if matches[2] != "" {
		id, err := strconv.ParseInt(matches[2], 10, 64)
		if err != nil {
			return "", 0, false
		}
		ref = id
	}

	return entity.Confirmation(matches[1]), ref, true
}

func ParseAnswer(raw string) (entity.Confirmation, bool) {
	answer := entity.Confirmation(nlp.Token(raw))
	return answer, answer.Valid()
}
