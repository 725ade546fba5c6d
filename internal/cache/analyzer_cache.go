package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
	"github.com/seclyra/veil/internal/ner"
)

// Config contains the analyzer-result cache configuration.
type Config struct {
	RedisURL   string
	DefaultTTL time.Duration
	KeyPrefix  string
}

// AnalyzerCache is a Redis read-through cache in front of an ner.Analyzer.
// Repeated analysis of identical text (retries, regenerations, multi-turn
// payloads that resend history) hits Redis instead of the model. Cache
// failures always degrade to a direct analyzer call.
type AnalyzerCache struct {
	inner  ner.Analyzer
	client *redis.Client
	config *Config
	logger *logger.Logger

	hits   int64
	misses int64
}

var _ ner.Analyzer = (*AnalyzerCache)(nil)

// NewAnalyzerCache wraps inner with a Redis-backed result cache.
func NewAnalyzerCache(inner ner.Analyzer, cfg *Config, log *logger.Logger) (*AnalyzerCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := &AnalyzerCache{
		inner:  inner,
		client: client,
		config: cfg,
		logger: log.WithComponent("ner_cache"),
	}

	c.logger.Info("Analyzer result cache initialized",
		zap.Duration("default_ttl", cfg.DefaultTTL),
		zap.String("key_prefix", cfg.KeyPrefix),
	)

	return c, nil
}

// Analyze returns cached entities for text when present, otherwise calls the
// inner analyzer and stores its result.
func (c *AnalyzerCache) Analyze(ctx context.Context, text, language string) ([]ner.Entity, error) {
	key := c.key(text, language)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		atomic.AddInt64(&c.misses, 1)
	case err != nil:
		atomic.AddInt64(&c.misses, 1)
		c.logger.Debug("Cache lookup failed", zap.Error(err))
	default:
		var entities []ner.Entity
		if err := json.Unmarshal([]byte(cached), &entities); err == nil {
			atomic.AddInt64(&c.hits, 1)
			return entities, nil
		}
		// Corrupted entry: drop it and fall through to the analyzer.
		c.client.Del(ctx, key)
	}

	entities, err := c.inner.Analyze(ctx, text, language)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entities); err == nil {
		if err := c.client.Set(ctx, key, data, c.config.DefaultTTL).Err(); err != nil {
			c.logger.Debug("Failed to cache analyzer result", zap.Error(err))
		}
	}

	return entities, nil
}

// Stats returns cache hit and miss counts.
func (c *AnalyzerCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Close releases the Redis connection.
func (c *AnalyzerCache) Close() error {
	return c.client.Close()
}

// key derives the cache key from the analyzed text and language.
func (c *AnalyzerCache) key(text, language string) string {
	sum := sha256.Sum256([]byte(language + "\x00" + text))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:16])
}
