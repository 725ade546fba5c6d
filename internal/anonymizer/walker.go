package anonymizer

import (
	"context"

	"github.com/seclyra/veil/internal/mapping"
	"github.com/seclyra/veil/internal/profile"
)

// Mode selects the direction of a walk.
type Mode int

const (
	// ModeAnonymize replaces detected entities with placeholders.
	ModeAnonymize Mode = iota
	// ModeDeanonymize replaces placeholders with their original values.
	ModeDeanonymize
)

// skipKeys are structurally significant fields that are never prose:
// identifiers, enum-like control fields and numeric tuning parameters.
// Their values pass through verbatim in both directions.
var skipKeys = map[string]struct{}{
	"model":              {},
	"role":               {},
	"name":               {},
	"format":             {},
	"stream":             {},
	"stop":               {},
	"seed":               {},
	"temperature":        {},
	"max_tokens":         {},
	"top_p":              {},
	"frequency_penalty":  {},
	"presence_penalty":   {},
	"n":                  {},
	"user":               {},
	"privacy_mapping_id": {},
}

// Walker applies a TextProcessor to every string leaf of a nested document.
// It always returns a fresh tree; the caller's document is never mutated.
type Walker struct {
	processor *TextProcessor
}

// NewWalker creates a walker over the given processor.
func NewWalker(processor *TextProcessor) *Walker {
	return &Walker{processor: processor}
}

// Walk recursively processes doc. In anonymize mode the returned mapping set
// aggregates every substitution made anywhere in the tree; in deanonymize
// mode docMappings supplies the document's correlation entry (may be nil).
func (w *Walker) Walk(ctx context.Context, doc any, mode Mode, prof profile.Profile, docMappings mapping.Set) (any, mapping.Set) {
	aggregate := mapping.Set{}
	result := w.walk(ctx, doc, mode, prof, docMappings, aggregate)
	return result, aggregate
}

func (w *Walker) walk(ctx context.Context, node any, mode Mode, prof profile.Profile, docMappings, aggregate mapping.Set) any {
	switch value := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, child := range value {
			if _, skip := skipKeys[key]; skip {
				out[key] = child
				continue
			}
			out[key] = w.walk(ctx, child, mode, prof, docMappings, aggregate)
		}
		return out

	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			// Instructional system content must not be rewritten.
			if isSystemMessage(item) {
				out[i] = item
				continue
			}
			out[i] = w.walk(ctx, item, mode, prof, docMappings, aggregate)
		}
		return out

	case string:
		if mode == ModeAnonymize {
			rewritten, mappings := w.processor.AnonymizeText(ctx, value, prof)
			for placeholder, original := range mappings {
				aggregate[placeholder] = original
			}
			return rewritten
		}
		return w.processor.DeanonymizeText(value, docMappings)

	default:
		// Numbers, booleans, nulls and anything unrecognized pass through.
		return node
	}
}

// isSystemMessage reports whether a list element is a role-tagged message
// object marked as a system message.
func isSystemMessage(item any) bool {
	message, ok := item.(map[string]any)
	if !ok {
		return false
	}
	role, ok := message["role"].(string)
	return ok && role == "system"
}
