package anonymizer

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/ner"
	"github.com/seclyra/veil/internal/profile"
)

// stage is one detection strategy. Stages run in a fixed order and each one
// sees the text as rewritten by the stages before it, so the NER collaborator
// never re-detects spans that custom matching already replaced.
type stage struct {
	name   string
	detect func(ctx context.Context, text string, prof profile.Profile) []EntitySpan
}

// Detector composes custom exact matching, fuzzy matching and the NER
// collaborator into an ordered span producer.
type Detector struct {
	analyzer ner.Analyzer
	opts     Options
	logger   *logger.Logger
}

// NewDetector creates a detector backed by the given NER collaborator.
func NewDetector(analyzer ner.Analyzer, opts Options, log *logger.Logger) *Detector {
	if analyzer == nil {
		analyzer = ner.Disabled{}
	}
	return &Detector{
		analyzer: analyzer,
		opts:     opts.withDefaults(),
		logger:   log.WithComponent("detector"),
	}
}

// ShouldSkip reports whether text bypasses detection entirely: too short,
// a profile skip term, or UUID-shaped.
func (d *Detector) ShouldSkip(text string, prof profile.Profile) bool {
	if len(text) < d.opts.MinTextLength {
		return true
	}
	if prof.IsSkipTerm(text) {
		return true
	}
	if len(text) == uuidLength && strings.Count(text, "-") == uuidDashCount {
		return true
	}
	return false
}

// stages returns the detection strategies in their fixed execution order.
func (d *Detector) stages() []stage {
	return []stage{
		{name: "custom_exact", detect: d.detectCustomExact},
		{name: "custom_fuzzy", detect: d.detectCustomFuzzy},
		{name: "ner", detect: d.detectNER},
	}
}

// detectCustomExact yields one span per verbatim occurrence of every custom
// entity literal in the profile.
func (d *Detector) detectCustomExact(_ context.Context, text string, prof profile.Profile) []EntitySpan {
	entityTypes := make([]string, 0, len(prof.CustomEntities))
	for entityType := range prof.CustomEntities {
		entityTypes = append(entityTypes, entityType)
	}
	sort.Strings(entityTypes)

	var spans []EntitySpan
	for _, entityType := range entityTypes {
		for _, literal := range prof.CustomEntities[entityType] {
			if literal == "" {
				continue
			}
			for from := 0; ; {
				idx := strings.Index(text[from:], literal)
				if idx < 0 {
					break
				}
				start := from + idx
				spans = append(spans, EntitySpan{
					Type:  entityType,
					Text:  literal,
					Start: start,
					End:   start + len(literal),
					Score: 1.0,
				})
				from = start + len(literal)
			}
		}
	}
	return spans
}

// detectCustomFuzzy yields spans for approximate custom entity hits. Verbatim
// occurrences were already consumed by the exact stage, so only genuinely
// fuzzy phrases remain to be matched here.
func (d *Detector) detectCustomFuzzy(_ context.Context, text string, prof profile.Profile) []EntitySpan {
	if !prof.FuzzyEnabled() {
		return nil
	}

	var spans []EntitySpan
	for _, match := range fuzzyMatchEntities(text, prof, d.opts) {
		start := strings.Index(text, match.Phrase)
		if start < 0 {
			continue
		}
		spans = append(spans, EntitySpan{
			Type:  match.EntityType,
			Text:  match.Phrase,
			Start: start,
			End:   start + len(match.Phrase),
			Score: float64(match.Score) / 100.0,
		})

		d.logger.Debug("Fuzzy match",
			zap.String("entity_type", match.EntityType),
			zap.Int("score", match.Score),
		)
	}
	return spans
}

// detectNER asks the collaborator for spans and filters them by the profile's
// per-type confidence thresholds. Collaborator failure means zero spans from
// this stage; anonymization degrades to custom-entity-only coverage.
func (d *Detector) detectNER(ctx context.Context, text string, prof profile.Profile) []EntitySpan {
	entities, err := d.analyzer.Analyze(ctx, text, d.opts.Language)
	if err != nil {
		d.logger.Warn("NER collaborator failed, continuing without NER spans", zap.Error(err))
		return nil
	}

	var spans []EntitySpan
	for _, entity := range entities {
		if entity.Score < prof.Threshold(entity.EntityType) {
			continue
		}
		if entity.Start < 0 || entity.End > len(text) || entity.Start >= entity.End {
			continue
		}
		spans = append(spans, EntitySpan{
			Type:  entity.EntityType,
			Text:  text[entity.Start:entity.End],
			Start: entity.Start,
			End:   entity.End,
			Score: entity.Score,
		})

		d.logger.Debug("NER entity accepted",
			zap.String("entity_type", entity.EntityType),
			zap.Float64("score", entity.Score),
		)
	}
	return spans
}
