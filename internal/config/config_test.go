package config

import "testing"

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if cfg.Server.Port != 8010 {
		t.Errorf("Expected default port 8010, got %d", cfg.Server.Port)
	}
	if cfg.Privacy.DefaultProfile != "default" {
		t.Errorf("Expected default profile name, got %q", cfg.Privacy.DefaultProfile)
	}
	if cfg.Privacy.StoreCapacity != 100 {
		t.Errorf("Expected store capacity 100, got %d", cfg.Privacy.StoreCapacity)
	}
	if cfg.Privacy.TypePrefixFallback {
		t.Error("Expected type prefix fallback to be off by default")
	}
	if !cfg.NER.Enabled || cfg.NER.URL == "" {
		t.Error("Expected NER enabled with an analyzer URL by default")
	}
	if cfg.Cache.Enabled || cfg.Audit.Enabled {
		t.Error("Expected cache and audit disabled by default")
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("Default configuration failed validation: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"zero store capacity", func(c *Config) { c.Privacy.StoreCapacity = 0 }},
		{"zero phrase words", func(c *Config) { c.Privacy.MaxPhraseWords = 0 }},
		{"ner enabled without url", func(c *Config) { c.NER.URL = "" }},
		{"audit enabled without url", func(c *Config) { c.Audit.Enabled = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
