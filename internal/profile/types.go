package profile

import "strings"

// DefaultName is the profile used when no profile is requested or the
// requested one is unknown.
const DefaultName = "default"

// Threshold map key used when an entity type has no explicit entry.
const DefaultKey = "DEFAULT"

// DefaultFuzzyThreshold is the fuzzy similarity cutoff for entity types
// without an explicit fuzzy threshold.
const DefaultFuzzyThreshold = 80

// FuzzyMatch configures approximate matching of custom entity literals.
type FuzzyMatch struct {
	Enabled    bool           `yaml:"enabled" mapstructure:"enabled"`
	Thresholds map[string]int `yaml:"thresholds" mapstructure:"thresholds"`
}

// Profile is a named detection policy. Profiles are immutable once resolved;
// callers must not mutate the maps and slices they receive.
type Profile struct {
	Description    string              `yaml:"description" mapstructure:"description"`
	Thresholds     map[string]float64  `yaml:"thresholds" mapstructure:"thresholds"`
	CustomEntities map[string][]string `yaml:"custom_entities" mapstructure:"custom_entities"`
	FuzzyMatch     *FuzzyMatch         `yaml:"fuzzy_match" mapstructure:"fuzzy_match"`
	SkipTerms      []string            `yaml:"skip_terms" mapstructure:"skip_terms"`
}

// Default returns the built-in default profile. These thresholds mirror the
// analyzer entity types the gateway was originally deployed against.
func Default() Profile {
	return Profile{
		Thresholds: map[string]float64{
			"PERSON":        0.85,
			"EMAIL_ADDRESS": 0.75,
			"PHONE_NUMBER":  0.75,
			"LOCATION":      0.90,
			"DATE_TIME":     0.95,
			"NRP":           0.85,
			"IP_ADDRESS":    0.75,
			"DOMAIN_NAME":   0.80,
			"URL":           0.80,
			DefaultKey:      0.85,
		},
		CustomEntities: map[string][]string{},
		SkipTerms:      []string{},
	}
}

// Merge layers override on top of base and returns the result. Thresholds
// merge key-by-key; every other field replaces the base value wholesale when
// the override carries it. Neither input is mutated.
func Merge(base, override Profile) Profile {
	merged := Profile{
		Description:    base.Description,
		Thresholds:     make(map[string]float64, len(base.Thresholds)),
		CustomEntities: base.CustomEntities,
		FuzzyMatch:     base.FuzzyMatch,
		SkipTerms:      base.SkipTerms,
	}
	for k, v := range base.Thresholds {
		merged.Thresholds[k] = v
	}
	for k, v := range override.Thresholds {
		merged.Thresholds[k] = v
	}
	if override.Description != "" {
		merged.Description = override.Description
	}
	if override.CustomEntities != nil {
		merged.CustomEntities = override.CustomEntities
	}
	if override.FuzzyMatch != nil {
		merged.FuzzyMatch = override.FuzzyMatch
	}
	if override.SkipTerms != nil {
		merged.SkipTerms = override.SkipTerms
	}
	return merged
}

// Threshold returns the confidence threshold for an entity type, falling back
// to the DEFAULT entry.
func (p Profile) Threshold(entityType string) float64 {
	if t, ok := p.Thresholds[entityType]; ok {
		return t
	}
	return p.Thresholds[DefaultKey]
}

// FuzzyEnabled reports whether fuzzy matching is active for this profile.
func (p Profile) FuzzyEnabled() bool {
	return p.FuzzyMatch != nil && p.FuzzyMatch.Enabled
}

// FuzzyThreshold returns the fuzzy similarity cutoff for an entity type.
func (p Profile) FuzzyThreshold(entityType string) int {
	if p.FuzzyMatch == nil {
		return DefaultFuzzyThreshold
	}
	if t, ok := p.FuzzyMatch.Thresholds[entityType]; ok {
		return t
	}
	if t, ok := p.FuzzyMatch.Thresholds[DefaultKey]; ok {
		return t
	}
	return DefaultFuzzyThreshold
}

// IsSkipTerm reports whether text exactly matches a skip term, ignoring case.
func (p Profile) IsSkipTerm(text string) bool {
	for _, term := range p.SkipTerms {
		if strings.EqualFold(text, term) {
			return true
		}
	}
	return false
}
