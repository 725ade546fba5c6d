package anonymizer

// EntitySpan is a detected substring with its entity type and confidence.
// Spans are transient: they exist between detection and placeholder
// substitution and are never stored.
type EntitySpan struct {
	Type  string  `json:"type"`
	Text  string  `json:"text"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// Options tunes the text processing pipeline. Zero fields fall back to the
// defaults below.
type Options struct {
	// MinTextLength is the minimum string length considered for detection.
	MinTextLength int
	// MaxPhraseWords bounds the word-window size for fuzzy phrase extraction.
	MaxPhraseWords int
	// MinEntityLength is the minimum length of custom entity literals and
	// candidate phrases considered for fuzzy matching.
	MinEntityLength int
	// Language is passed to the NER collaborator.
	Language string
}

const (
	defaultMinTextLength   = 5
	defaultMaxPhraseWords  = 5
	defaultMinEntityLength = 5
	defaultLanguage        = "en"

	// UUID-shaped strings bypass detection entirely.
	uuidLength    = 36
	uuidDashCount = 4
)

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.MinTextLength <= 0 {
		o.MinTextLength = defaultMinTextLength
	}
	if o.MaxPhraseWords <= 0 {
		o.MaxPhraseWords = defaultMaxPhraseWords
	}
	if o.MinEntityLength <= 0 {
		o.MinEntityLength = defaultMinEntityLength
	}
	if o.Language == "" {
		o.Language = defaultLanguage
	}
	return o
}
