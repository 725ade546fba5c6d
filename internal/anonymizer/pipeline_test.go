package anonymizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/mapping"
	"github.com/seclyra/veil/internal/profile"
)

const testProfilesYAML = `version: 1
profiles:
  default:
    custom_entities:
      PERSON:
        - John Test User
`

func testResolver(t *testing.T) *profile.Resolver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(testProfilesYAML), 0o644); err != nil {
		t.Fatalf("Failed to write profiles file: %v", err)
	}
	return profile.NewResolver(path, logger.NewNop())
}

func newTestPipeline(t *testing.T) (*Pipeline, *mapping.Store) {
	t.Helper()
	log := logger.NewNop()
	store := mapping.NewStore(mapping.DefaultCapacity, log)
	detector := NewDetector(nil, Options{}, log)
	processor := NewTextProcessor(detector, store, false, log)
	walker := NewWalker(processor)
	return NewPipeline(testResolver(t), walker, store, log), store
}

func userDoc(content string) map[string]any {
	return map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": content},
		},
	}
}

func docContent(t *testing.T, doc any) string {
	t.Helper()
	messages, ok := doc.(map[string]any)["messages"].([]any)
	if !ok || len(messages) == 0 {
		t.Fatalf("Document has no messages: %v", doc)
	}
	content, ok := messages[0].(map[string]any)["content"].(string)
	if !ok {
		t.Fatalf("Message has no string content: %v", messages[0])
	}
	return content
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)

		original := "Ask John Test User about the incident."
		anonymized, mappings := pipeline.Anonymize(ctx, userDoc(original), "")

		content := docContent(t, anonymized)
		if !personPlaceholder.MatchString(content) {
			t.Errorf("Expected placeholder in anonymized content, got %q", content)
		}
		if len(mappings) != 1 {
			t.Errorf("Expected 1 mapping, got %d", len(mappings))
		}

		id, ok := CorrelationID(anonymized)
		if !ok || id == "" {
			t.Fatal("Expected correlation id in metadata")
		}

		restored := pipeline.Deanonymize(ctx, anonymized)
		if got := docContent(t, restored); got != original {
			t.Errorf("Round trip mismatch: got %q, want %q", got, original)
		}
		if _, ok := CorrelationID(restored); ok {
			t.Error("Expected correlation id stripped from restored document")
		}
	})

	t.Run("FallbackWithoutCorrelationID", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)

		original := "Ask John Test User about the incident."
		anonymized, _ := pipeline.Anonymize(ctx, userDoc(original), "")

		// A response that lost its metadata entirely.
		stripped := userDoc(docContent(t, anonymized))

		restored := pipeline.Deanonymize(ctx, stripped)
		if got := docContent(t, restored); got != original {
			t.Errorf("Expected store-wide fallback resolution, got %q", got)
		}
	})

	t.Run("UnknownCorrelationIDLeavesPlaceholderCandidatesToFallback", func(t *testing.T) {
		pipeline, store := newTestPipeline(t)
		store.Add("session", mapping.Set{"<PERSON_0a1b2c3d>": "John Test User"})

		doc := userDoc("Hello <PERSON_0a1b2c3d>!")
		doc["metadata"] = map[string]any{MappingIDKey: "no-such-entry"}

		restored := pipeline.Deanonymize(ctx, doc)
		if got := docContent(t, restored); got != "Hello John Test User!" {
			t.Errorf("Expected fallback resolution despite stale id, got %q", got)
		}
	})

	t.Run("CorrelationRegisteredEvenWithoutDetections", func(t *testing.T) {
		pipeline, store := newTestPipeline(t)

		anonymized, mappings := pipeline.Anonymize(ctx, userDoc("Nothing sensitive in here."), "")

		if len(mappings) != 0 {
			t.Errorf("Expected no mappings, got %d", len(mappings))
		}
		id, ok := CorrelationID(anonymized)
		if !ok {
			t.Fatal("Expected correlation id even without detections")
		}
		if _, found := store.Get(id); !found {
			t.Error("Expected correlation entry in store")
		}
	})

	t.Run("NonObjectDocument", func(t *testing.T) {
		pipeline, _ := newTestPipeline(t)

		result, mappings := pipeline.Anonymize(ctx, []any{"Ask John Test User about it."}, "")

		list, ok := result.([]any)
		if !ok || len(list) != 1 {
			t.Fatalf("Expected single-element list, got %v", result)
		}
		if !personPlaceholder.MatchString(list[0].(string)) {
			t.Errorf("Expected placeholder in list element, got %q", list[0])
		}
		if len(mappings) != 1 {
			t.Errorf("Expected 1 mapping, got %d", len(mappings))
		}
	})
}

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name   string
		doc    any
		want   string
		wantOK bool
	}{
		{
			"present",
			map[string]any{"metadata": map[string]any{MappingIDKey: "abc"}},
			"abc", true,
		},
		{
			"empty id",
			map[string]any{"metadata": map[string]any{MappingIDKey: ""}},
			"", false,
		},
		{
			"no metadata",
			map[string]any{"messages": []any{}},
			"", false,
		},
		{
			"not an object",
			[]any{"text"},
			"", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CorrelationID(tt.doc)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CorrelationID = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
