package anonymizer

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/seclyra/veil/internal/profile"
)

// FuzzyMatch is one approximate hit of a configured custom entity literal.
// Phrase is the text that actually occurred; Literal is the configured value
// it resembles. For verbatim occurrences the two are equal and Score is 100.
type FuzzyMatch struct {
	EntityType string
	Literal    string
	Phrase     string
	Score      int
}

// fuzzyMatchEntities scores every configured custom entity literal against
// candidate phrases extracted from text. Iteration is deterministic: entity
// types in sorted order, phrases positional (left-to-right, increasing window
// length), so a fixed input always produces the same matches.
func fuzzyMatchEntities(text string, prof profile.Profile, opts Options) []FuzzyMatch {
	if text == "" || len(prof.CustomEntities) == 0 {
		return nil
	}

	phrases := extractPhrases(text, opts)

	entityTypes := make([]string, 0, len(prof.CustomEntities))
	for entityType := range prof.CustomEntities {
		entityTypes = append(entityTypes, entityType)
	}
	sort.Strings(entityTypes)

	var matches []FuzzyMatch
	for _, entityType := range entityTypes {
		threshold := prof.FuzzyThreshold(entityType)

		for _, literal := range prof.CustomEntities[entityType] {
			// Very short literals match too much noise.
			if len(literal) < opts.MinEntityLength {
				continue
			}

			// Verbatim occurrence wins outright; no fuzzy scan needed.
			if strings.Contains(text, literal) {
				matches = append(matches, FuzzyMatch{
					EntityType: entityType,
					Literal:    literal,
					Phrase:     literal,
					Score:      100,
				})
				continue
			}

			for _, phrase := range phrases {
				score := similarityRatio(literal, phrase)
				if score >= threshold {
					matches = append(matches, FuzzyMatch{
						EntityType: entityType,
						Literal:    literal,
						Phrase:     phrase,
						Score:      score,
					})
					break
				}
			}
		}
	}

	return matches
}

// extractPhrases enumerates contiguous word windows of text, per start
// position with increasing window length, discarding phrases shorter than
// MinEntityLength.
func extractPhrases(text string, opts Options) []string {
	words := strings.Fields(text)

	var phrases []string
	for i := range words {
		for j := i + 1; j <= len(words) && j-i <= opts.MaxPhraseWords; j++ {
			phrase := strings.Join(words[i:j], " ")
			if len(phrase) >= opts.MinEntityLength {
				phrases = append(phrases, phrase)
			}
		}
	}
	return phrases
}

// similarityRatio computes a case-insensitive similarity between two strings
// as a 0-100 ratio derived from their Levenshtein distance.
func similarityRatio(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 100
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}

	distance := levenshtein.ComputeDistance(a, b)
	ratio := (1.0 - float64(distance)/float64(longest)) * 100.0
	if ratio < 0 {
		return 0
	}
	return int(math.Round(ratio))
}
