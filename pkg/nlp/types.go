package nlp

type Intent string

const (
	IntentAffirmative  Intent = "affirmative"
	IntentNegative     Intent = "negative"
	IntentUnrecognized Intent = "unrecognized"
)

func (i Intent) String() string {
	return string(i)
}

// PhraseSet is a set of normalized phrases used for exact-match lookups.
type PhraseSet map[string]struct{}

func NewPhraseSet(phrases ...string) PhraseSet {
	set := make(PhraseSet, len(phrases))
	for _, phrase := range phrases {
		normalized := Normalize(phrase)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (p PhraseSet) Contains(normalized string) bool {
	_, ok := p[normalized]
	return ok
}

func (p PhraseSet) Len() int {
	return len(p)
}

type IClassifier interface {
	Classify(text string) Intent
}
