package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
)

// maxResponseSize caps how much of an analyzer response is read.
const maxResponseSize = 10 << 20 // 10 MB

// ClientConfig contains the HTTP analyzer client configuration.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// Client calls an external analyzer service over HTTP. The wire format is the
// Presidio analyzer contract: a JSON {text, language} request and a JSON array
// of {entity_type, start, end, score} results.
type Client struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

var _ Analyzer = (*Client)(nil)

// NewClient creates an analyzer client for the given endpoint.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithComponent("ner"),
	}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Analyze sends text to the analyzer service and returns the detected spans.
func (c *Client) Analyze(ctx context.Context, text, language string) ([]Entity, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text, Language: language})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read analyzer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	var entities []Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer response: %w", err)
	}

	c.logger.Debug("Analyzer call complete",
		zap.Int("entities", len(entities)),
		zap.Duration("duration", time.Since(start)),
	)

	return entities, nil
}
