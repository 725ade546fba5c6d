package anonymizer

import (
	"regexp"
	"testing"
)

func TestMinter(t *testing.T) {
	t.Run("TokenFormat", func(t *testing.T) {
		mint := newMinter()
		token := mint.mint("PERSON")

		pattern := regexp.MustCompile(`^<PERSON_[0-9a-f]{8}>$`)
		if !pattern.MatchString(token) {
			t.Errorf("Token %q does not match placeholder grammar", token)
		}
	})

	t.Run("TokensAreUnique", func(t *testing.T) {
		mint := newMinter()
		seen := make(map[string]struct{})
		for i := 0; i < 200; i++ {
			token := mint.mint("PERSON")
			if _, dup := seen[token]; dup {
				t.Fatalf("Duplicate token minted: %q", token)
			}
			seen[token] = struct{}{}
		}
	})
}

func TestNormalizeEntityType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "PERSON", "PERSON"},
		{"lowercase", "person", "PERSON"},
		{"spaces", "email address", "EMAIL_ADDRESS"},
		{"hyphens", "ip-address", "IP_ADDRESS"},
		{"digits", "type2", "TYPE_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEntityType(tt.input); got != tt.want {
				t.Errorf("normalizeEntityType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindPlaceholders(t *testing.T) {
	text := "Hello <PERSON_0a1b2c3d>, your email <EMAIL_ADDRESS_deadbeef> is on file."

	got := findPlaceholders(text)
	want := []string{"<PERSON_0a1b2c3d>", "<EMAIL_ADDRESS_deadbeef>"}

	if len(got) != len(want) {
		t.Fatalf("Expected %d placeholders, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Placeholder %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlaceholderType(t *testing.T) {
	t.Run("ExtractsType", func(t *testing.T) {
		entityType, ok := placeholderType("<EMAIL_ADDRESS_deadbeef>")
		if !ok {
			t.Fatal("Expected token to match")
		}
		if entityType != "EMAIL_ADDRESS" {
			t.Errorf("Expected EMAIL_ADDRESS, got %q", entityType)
		}
	})

	t.Run("RejectsNonToken", func(t *testing.T) {
		if _, ok := placeholderType("not a token"); ok {
			t.Error("Expected non-token to be rejected")
		}
	})
}

func TestContainsPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"embedded token", "hi <PERSON_0a1b2c3d> there", true},
		{"plain text", "hello world", false},
		{"angle brackets only", "a < b > c", false},
		{"lowercase type", "<person_0a1b2c3d>", false},
		{"short suffix", "<PERSON_0a1b2c>", false},
		{"uppercase suffix", "<PERSON_0A1B2C3D>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsPlaceholder(tt.text); got != tt.want {
				t.Errorf("containsPlaceholder(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
