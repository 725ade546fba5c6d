package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Privacy   PrivacyConfig   `yaml:"privacy" mapstructure:"privacy"`
	NER       NERConfig       `yaml:"ner" mapstructure:"ner"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// PrivacyConfig contains the anonymization pipeline configuration
type PrivacyConfig struct {
	DefaultProfile string `yaml:"default_profile" mapstructure:"default_profile"`
	ProfilePath    string `yaml:"profile_path" mapstructure:"profile_path"`
	// MinTextLength is the minimum string length considered for detection.
	MinTextLength int `yaml:"min_text_length" mapstructure:"min_text_length"`
	// MaxPhraseWords bounds the word-window size used for fuzzy phrase extraction.
	MaxPhraseWords  int `yaml:"max_phrase_words" mapstructure:"max_phrase_words"`
	MinEntityLength int `yaml:"min_entity_length" mapstructure:"min_entity_length"`
	// StoreCapacity bounds the correlation mapping store (LRU).
	StoreCapacity int `yaml:"store_capacity" mapstructure:"store_capacity"`
	// TypePrefixFallback enables the cross-session type-prefix resolution
	// strategy during deanonymization. It can bind a placeholder to another
	// session's value when types collide, so it is off unless opted in.
	TypePrefixFallback bool `yaml:"type_prefix_fallback" mapstructure:"type_prefix_fallback"`
}

// NERConfig contains the named-entity-recognition collaborator configuration
type NERConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	URL      string        `yaml:"url" mapstructure:"url"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig contains the Redis analyzer-result cache configuration
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL   string        `yaml:"redis_url" mapstructure:"redis_url"`
	DefaultTTL time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix  string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// AuditConfig contains the PostgreSQL audit sink configuration
type AuditConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// SecurityConfig contains request-level guardrails
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains the dashboard event feed configuration
type WebSocketConfig struct {
	Enabled        bool     `yaml:"enabled" mapstructure:"enabled"`
	Path           string   `yaml:"path" mapstructure:"path"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8010,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Privacy: PrivacyConfig{
			DefaultProfile:     "default",
			ProfilePath:        "configs/profiles.yaml",
			MinTextLength:      5,
			MaxPhraseWords:     5,
			MinEntityLength:    5,
			StoreCapacity:      100,
			TypePrefixFallback: false,
		},
		NER: NERConfig{
			Enabled:  true,
			URL:      "http://localhost:5002/analyze",
			Language: "en",
			Timeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    false,
			RedisURL:   "redis://localhost:6379/0",
			DefaultTTL: time.Hour,
			KeyPrefix:  "veil:ner:",
		},
		Audit: AuditConfig{
			Enabled:         false,
			DatabaseURL:     "",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:        false,
				RequestsPerMin: 120,
				Burst:          20,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			Path:           "/ws",
			AllowedOrigins: []string{"*"},
		},
	}
}
