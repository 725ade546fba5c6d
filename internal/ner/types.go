package ner

import "context"

// Entity is one span the analyzer found in a piece of text. Offsets are byte
// offsets into the analyzed string.
type Entity struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

// Analyzer is the named-entity-recognition collaborator. Implementations may
// block on model inference; callers bound the call with the request context
// and must treat any error as "no entities found".
type Analyzer interface {
	Analyze(ctx context.Context, text, language string) ([]Entity, error)
}

// Disabled is an Analyzer that never finds anything. Used when NER is
// switched off in configuration.
type Disabled struct{}

// Analyze always returns no entities.
func (Disabled) Analyze(ctx context.Context, text, language string) ([]Entity, error) {
	return nil, nil
}
