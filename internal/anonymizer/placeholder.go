package anonymizer

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// placeholderPattern is the fixed placeholder grammar: an uppercase entity
// type followed by an 8-hex-digit suffix, enclosed in angle brackets. Any
// text matching it is either one of our placeholders or adversarial input,
// and both are handled the same way during deanonymization.
var placeholderPattern = regexp.MustCompile(`<([A-Z][A-Z_]*)_([0-9a-f]{8})>`)

// minter generates placeholder tokens with suffixes unique within one text
// processing invocation. Global uniqueness across the process is not
// guaranteed and the resolver tolerates collisions.
type minter struct {
	used map[string]struct{}
}

func newMinter() *minter {
	return &minter{used: make(map[string]struct{})}
}

// mint returns a fresh placeholder token for the entity type.
func (m *minter) mint(entityType string) string {
	entityType = normalizeEntityType(entityType)
	for {
		suffix := uuid.NewString()[:8]
		token := "<" + entityType + "_" + suffix + ">"
		if _, dup := m.used[token]; !dup {
			m.used[token] = struct{}{}
			return token
		}
	}
}

// normalizeEntityType maps an entity type onto the placeholder grammar:
// uppercase with underscores.
func normalizeEntityType(entityType string) string {
	entityType = strings.ToUpper(entityType)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r
		default:
			return '_'
		}
	}, entityType)
}

// findPlaceholders returns every grammar-matching token in text, in order.
func findPlaceholders(text string) []string {
	return placeholderPattern.FindAllString(text, -1)
}

// placeholderType extracts the entity type from a grammar-matching token.
func placeholderType(token string) (string, bool) {
	groups := placeholderPattern.FindStringSubmatch(token)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}

// containsPlaceholder reports whether text holds at least one token matching
// the placeholder grammar.
func containsPlaceholder(text string) bool {
	if !strings.Contains(text, "<") {
		return false
	}
	return placeholderPattern.MatchString(text)
}
