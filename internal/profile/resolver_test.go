package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seclyra/veil/internal/logger"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write profiles file: %v", err)
	}
	return path
}

func TestResolver(t *testing.T) {
	log := logger.NewNop()

	t.Run("MergesOverDefault", func(t *testing.T) {
		path := writeProfiles(t, `version: 1
profiles:
  strict:
    thresholds:
      DEFAULT: 0.5
    skip_terms:
      - internal
`)
		resolver := NewResolver(path, log)
		prof := resolver.Resolve("strict")

		// Overridden key takes effect, untouched keys keep built-in values.
		if got := prof.Thresholds[DefaultKey]; got != 0.5 {
			t.Errorf("Expected DEFAULT threshold 0.5, got %v", got)
		}
		if got := prof.Thresholds["PERSON"]; got != 0.85 {
			t.Errorf("Expected built-in PERSON threshold 0.85, got %v", got)
		}
		if !prof.IsSkipTerm("Internal") {
			t.Error("Expected case-insensitive skip term from override")
		}
	})

	t.Run("UnknownNameFallsBackToDefaultEntry", func(t *testing.T) {
		path := writeProfiles(t, `version: 1
profiles:
  default:
    thresholds:
      DEFAULT: 0.7
`)
		resolver := NewResolver(path, log)
		prof := resolver.Resolve("does-not-exist")

		if got := prof.Thresholds[DefaultKey]; got != 0.7 {
			t.Errorf("Expected fallback to file default entry, got %v", got)
		}
	})

	t.Run("MissingFileYieldsBuiltInDefault", func(t *testing.T) {
		resolver := NewResolver(filepath.Join(t.TempDir(), "absent.yaml"), log)
		prof := resolver.Resolve("")

		if got := prof.Thresholds["PERSON"]; got != 0.85 {
			t.Errorf("Expected built-in default profile, got PERSON threshold %v", got)
		}
	})

	t.Run("EmptyNameResolvesDefault", func(t *testing.T) {
		path := writeProfiles(t, `version: 1
profiles:
  default:
    description: from file
`)
		resolver := NewResolver(path, log)
		prof := resolver.Resolve("")

		if prof.Description != "from file" {
			t.Errorf("Expected file default entry, got %q", prof.Description)
		}
	})

	t.Run("Names", func(t *testing.T) {
		path := writeProfiles(t, `version: 1
profiles:
  default: {}
  strict: {}
`)
		resolver := NewResolver(path, log)

		names := resolver.Names()
		if len(names) != 2 {
			t.Errorf("Expected 2 profile names, got %v", names)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Run("ThresholdsMergeKeyByKey", func(t *testing.T) {
		base := Default()
		merged := Merge(base, Profile{Thresholds: map[string]float64{"PERSON": 0.5}})

		if merged.Thresholds["PERSON"] != 0.5 {
			t.Errorf("Expected overridden PERSON threshold, got %v", merged.Thresholds["PERSON"])
		}
		if merged.Thresholds["LOCATION"] != 0.90 {
			t.Errorf("Expected base LOCATION threshold, got %v", merged.Thresholds["LOCATION"])
		}
		if base.Thresholds["PERSON"] != 0.85 {
			t.Error("Merge mutated the base profile")
		}
	})

	t.Run("OtherFieldsReplaceWholesale", func(t *testing.T) {
		base := Profile{
			SkipTerms:      []string{"monday", "tuesday"},
			CustomEntities: map[string][]string{"PERSON": {"Alice Example"}},
		}
		merged := Merge(base, Profile{SkipTerms: []string{"friday"}})

		if len(merged.SkipTerms) != 1 || merged.SkipTerms[0] != "friday" {
			t.Errorf("Expected wholesale skip term replacement, got %v", merged.SkipTerms)
		}
		if len(merged.CustomEntities["PERSON"]) != 1 {
			t.Error("Expected custom entities carried from base when override omits them")
		}
	})
}

func TestProfileAccessors(t *testing.T) {
	t.Run("ThresholdFallsBackToDefaultKey", func(t *testing.T) {
		prof := Default()
		if got := prof.Threshold("CRYPTO_WALLET"); got != 0.85 {
			t.Errorf("Expected DEFAULT fallback 0.85, got %v", got)
		}
	})

	t.Run("FuzzyThresholdFallbacks", func(t *testing.T) {
		var prof Profile
		if got := prof.FuzzyThreshold("PERSON"); got != DefaultFuzzyThreshold {
			t.Errorf("Expected built-in fuzzy threshold, got %d", got)
		}

		prof.FuzzyMatch = &FuzzyMatch{Thresholds: map[string]int{DefaultKey: 70}}
		if got := prof.FuzzyThreshold("PERSON"); got != 70 {
			t.Errorf("Expected DEFAULT entry 70, got %d", got)
		}

		prof.FuzzyMatch.Thresholds["PERSON"] = 90
		if got := prof.FuzzyThreshold("PERSON"); got != 90 {
			t.Errorf("Expected per-type entry 90, got %d", got)
		}
	})
}
