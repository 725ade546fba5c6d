package anonymizer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/mapping"
	"github.com/seclyra/veil/internal/profile"
)

const (
	// metadataKey is the document field carrying request metadata.
	metadataKey = "metadata"
	// MappingIDKey is the metadata field linking an anonymized document to
	// its correlation entry in the mapping store.
	MappingIDKey = "privacy_mapping_id"
)

// Pipeline is the anonymize/deanonymize entry point. It composes the profile
// resolver, the payload walker and the correlation store, and owns the
// correlation id lifecycle in document metadata.
type Pipeline struct {
	resolver *profile.Resolver
	walker   *Walker
	store    *mapping.Store
	logger   *logger.Logger
}

// NewPipeline assembles a pipeline from its components.
func NewPipeline(resolver *profile.Resolver, walker *Walker, store *mapping.Store, log *logger.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		walker:   walker,
		store:    store,
		logger:   log.WithComponent("pipeline"),
	}
}

// Anonymize rewrites every detectable string leaf of doc, registers the
// aggregated mappings under a fresh correlation id and writes that id into
// the returned document's metadata. The input document is never mutated.
func (p *Pipeline) Anonymize(ctx context.Context, doc any, profileName string) (any, mapping.Set) {
	start := time.Now()
	prof := p.resolver.Resolve(profileName)

	result, mappings := p.walker.Walk(ctx, doc, ModeAnonymize, prof, nil)

	correlationID := uuid.NewString()
	p.store.Add(correlationID, mappings)

	if m, ok := result.(map[string]any); ok {
		meta, ok := m[metadataKey].(map[string]any)
		if !ok {
			meta = map[string]any{}
			m[metadataKey] = meta
		}
		meta[MappingIDKey] = correlationID
	} else {
		p.logger.Warn("Document has no top-level object, correlation id not embedded",
			zap.String("correlation_id", correlationID),
		)
	}

	p.logger.Info("Anonymization complete",
		zap.String("correlation_id", correlationID),
		zap.String("profile", profileName),
		zap.Int("mappings", len(mappings)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, mappings
}

// Deanonymize restores original values in doc using the correlation id from
// its metadata when present, falling back to store-wide resolution otherwise.
// The correlation id is stripped from the returned document.
func (p *Pipeline) Deanonymize(ctx context.Context, doc any) any {
	start := time.Now()

	var docMappings mapping.Set
	correlationID, ok := CorrelationID(doc)
	if ok {
		if mappings, found := p.store.Get(correlationID); found {
			docMappings = mappings
		} else {
			p.logger.Warn("Correlation entry not found, using fallback resolution",
				zap.String("correlation_id", correlationID),
			)
		}
	}

	result, _ := p.walker.Walk(ctx, doc, ModeDeanonymize, profile.Profile{}, docMappings)

	if m, ok := result.(map[string]any); ok {
		if meta, ok := m[metadataKey].(map[string]any); ok {
			delete(meta, MappingIDKey)
		}
	}

	p.logger.Info("Deanonymization complete",
		zap.String("correlation_id", correlationID),
		zap.Duration("duration", time.Since(start)),
	)

	return result
}

// CorrelationID extracts the correlation id from a document's metadata.
func CorrelationID(doc any) (string, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return "", false
	}
	meta, ok := m[metadataKey].(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := meta[MappingIDKey].(string)
	return id, ok && id != ""
}
