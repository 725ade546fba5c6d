package anonymizer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/mapping"
	"github.com/seclyra/veil/internal/profile"
)

// TextProcessor rewrites a single string: detected entity spans become
// placeholders on the way out, placeholders become their original values on
// the way back.
type TextProcessor struct {
	detector *Detector
	store    *mapping.Store
	// typePrefixFallback permits resolving an unknown placeholder against any
	// stored entry that holds the same entity type, regardless of suffix.
	// This can bind another session's value, so it is opt-in.
	typePrefixFallback bool
	logger             *logger.Logger
}

// NewTextProcessor creates a processor over the given detector and store.
func NewTextProcessor(detector *Detector, store *mapping.Store, typePrefixFallback bool, log *logger.Logger) *TextProcessor {
	return &TextProcessor{
		detector:           detector,
		store:              store,
		typePrefixFallback: typePrefixFallback,
		logger:             log.WithComponent("processor"),
	}
}

// AnonymizeText runs the staged detector over text and replaces each detected
// span with a freshly minted placeholder. Returns the rewritten text and the
// placeholder→original mappings produced. When nothing is detected the input
// is returned unchanged with no mappings.
func (p *TextProcessor) AnonymizeText(ctx context.Context, text string, prof profile.Profile) (string, mapping.Set) {
	if text == "" || p.detector.ShouldSkip(text, prof) {
		return text, nil
	}

	mint := newMinter()
	result := text
	var mappings mapping.Set

	for _, st := range p.detector.stages() {
		spans := st.detect(ctx, result, prof)
		for _, span := range spans {
			// The span was produced against this stage's input; an earlier
			// replacement in the same stage may already have consumed it.
			if !strings.Contains(result, span.Text) {
				continue
			}

			placeholder := mint.mint(span.Type)
			result = strings.Replace(result, span.Text, placeholder, 1)
			if mappings == nil {
				mappings = mapping.Set{}
			}
			mappings[placeholder] = span.Text

			p.logger.Debug("Entity replaced",
				zap.String("stage", st.name),
				zap.String("entity_type", span.Type),
				zap.Float64("score", span.Score),
			)
		}
	}

	if len(mappings) == 0 {
		return text, nil
	}
	return result, mappings
}

// DeanonymizeText restores original values for the placeholders in text.
// Resolution order: the document's own mapping set first, then an exact
// placeholder key search across every stored entry, then (opt-in) any stored
// placeholder sharing the same type prefix. Whatever remains unresolved is
// left verbatim; an unresolved placeholder is never an error.
func (p *TextProcessor) DeanonymizeText(text string, docMappings mapping.Set) string {
	if !containsPlaceholder(text) {
		return text
	}

	result := text

	for placeholder, original := range docMappings {
		if strings.Contains(result, placeholder) {
			result = strings.ReplaceAll(result, placeholder, original)
		}
	}

	remaining := findPlaceholders(result)
	if len(remaining) == 0 {
		return result
	}

	entries := p.store.All()
	for _, placeholder := range remaining {
		if original, ok := lookupExact(entries, placeholder); ok {
			result = strings.ReplaceAll(result, placeholder, original)
			continue
		}

		if !p.typePrefixFallback {
			continue
		}
		entityType, ok := placeholderType(placeholder)
		if !ok {
			continue
		}
		if original, ok := lookupByTypePrefix(entries, entityType); ok {
			p.logger.Warn("Placeholder resolved by cross-session type prefix",
				zap.String("entity_type", entityType),
			)
			result = strings.ReplaceAll(result, placeholder, original)
		}
	}

	return result
}

// lookupExact finds a placeholder key across all stored entries.
func lookupExact(entries []mapping.Entry, placeholder string) (string, bool) {
	for _, entry := range entries {
		if original, ok := entry.Mappings[placeholder]; ok {
			return original, true
		}
	}
	return "", false
}

// lookupByTypePrefix finds any stored placeholder of the same entity type.
func lookupByTypePrefix(entries []mapping.Entry, entityType string) (string, bool) {
	prefix := "<" + entityType + "_"
	for _, entry := range entries {
		for placeholder, original := range entry.Mappings {
			if strings.HasPrefix(placeholder, prefix) {
				return original, true
			}
		}
	}
	return "", false
}
