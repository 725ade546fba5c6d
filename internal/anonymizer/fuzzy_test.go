package anonymizer

import (
	"reflect"
	"testing"

	"github.com/seclyra/veil/internal/profile"
)

func fuzzyProfile(threshold int) profile.Profile {
	prof := profile.Default()
	prof.CustomEntities = map[string][]string{
		"PERSON": {"John Test User"},
	}
	prof.FuzzyMatch = &profile.FuzzyMatch{
		Enabled:    true,
		Thresholds: map[string]int{profile.DefaultKey: threshold},
	}
	return prof
}

func TestFuzzyMatchEntities(t *testing.T) {
	opts := Options{}.withDefaults()

	t.Run("VerbatimOccurrenceScoresHundred", func(t *testing.T) {
		matches := fuzzyMatchEntities("please call John Test User now", fuzzyProfile(80), opts)

		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
		if matches[0].Score != 100 {
			t.Errorf("Expected score 100, got %d", matches[0].Score)
		}
		if matches[0].Phrase != matches[0].Literal {
			t.Errorf("Expected phrase to equal literal, got %q vs %q", matches[0].Phrase, matches[0].Literal)
		}
	})

	t.Run("ApproximateOccurrenceMatchesPhrase", func(t *testing.T) {
		matches := fuzzyMatchEntities("my name is John Tset User.", fuzzyProfile(75), opts)

		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
		if matches[0].Phrase != "John Tset User." {
			t.Errorf("Expected phrase from the text, got %q", matches[0].Phrase)
		}
		if matches[0].Literal != "John Test User" {
			t.Errorf("Expected configured literal, got %q", matches[0].Literal)
		}
		if matches[0].Score < 75 || matches[0].Score == 100 {
			t.Errorf("Expected approximate score in [75,100), got %d", matches[0].Score)
		}
	})

	t.Run("ThresholdGatesMatch", func(t *testing.T) {
		matches := fuzzyMatchEntities("my name is John Tset User.", fuzzyProfile(95), opts)

		if len(matches) != 0 {
			t.Errorf("Expected no matches above threshold 95, got %d", len(matches))
		}
	})

	t.Run("ShortLiteralSkipped", func(t *testing.T) {
		prof := fuzzyProfile(80)
		prof.CustomEntities = map[string][]string{"PERSON": {"Bob"}}

		matches := fuzzyMatchEntities("Bob is here today", prof, opts)
		if len(matches) != 0 {
			t.Errorf("Expected literal below min entity length to be skipped, got %d matches", len(matches))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		prof := fuzzyProfile(75)
		prof.CustomEntities = map[string][]string{
			"PERSON":       {"John Test User"},
			"ORGANIZATION": {"Acme Rockets Inc"},
		}
		text := "John Tset User works at Acme Rockets Inc"

		first := fuzzyMatchEntities(text, prof, opts)
		second := fuzzyMatchEntities(text, prof, opts)

		if !reflect.DeepEqual(first, second) {
			t.Errorf("Expected identical results across runs:\n%v\n%v", first, second)
		}
	})
}

func TestExtractPhrases(t *testing.T) {
	opts := Options{MaxPhraseWords: 2, MinEntityLength: 5}.withDefaults()

	got := extractPhrases("one two three", opts)
	want := []string{"one two", "two three", "three"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractPhrases = %v, want %v", got, want)
	}
}

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "hello", "hello", 100},
		{"case insensitive", "Hello", "hello", 100},
		{"both empty", "", "", 100},
		{"disjoint", "aaaa", "zzzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := similarityRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("similarityRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	t.Run("SingleEdit", func(t *testing.T) {
		// One substitution over ten runes.
		if got := similarityRatio("abcdefghij", "abcdefghiX"); got != 90 {
			t.Errorf("Expected 90, got %d", got)
		}
	})
}
