package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Classifier matches normalized text against two fixed phrase sets. There is
// no partial or fuzzy matching.
type Classifier struct {
	affirmative PhraseSet
	negative    PhraseSet
}

func NewClassifier(affirmative, negative []string) *Classifier {
	return &Classifier{
		affirmative: NewPhraseSet(affirmative...),
		negative:    NewPhraseSet(negative...),
	}
}

// Classify checks the affirmative set first, so a phrase present in both
// sets is affirmative.
func (c *Classifier) Classify(text string) Intent {
	normalized := Normalize(text)
	if normalized == "" {
		return IntentUnrecognized
	}

	if c.affirmative.Contains(normalized) {
		return IntentAffirmative
	}
	if c.negative.Contains(normalized) {
		return IntentNegative
	}

	return IntentUnrecognized
}

// Normalize lowercases text, strips diacritics through canonical
// decomposition and trims surrounding whitespace. Inner punctuation and
// spacing are kept as-is.
func Normalize(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	return strings.TrimSpace(result)
}

// Token normalizes text and upper-cases it, used for fixed reply tokens
// such as SI / NO.
func Token(text string) string {
	return strings.ToUpper(Normalize(text))
}
