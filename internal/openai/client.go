// Package openai is a minimal client for the text-completion backend.
// It supports two credential flavors: a direct API key against the
// completions endpoint, and a delegated relay that identifies the caller
// by email address.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default backend parameters.
const (
	DefaultBaseURL  = "https://api.openai.com/v1/completions"
	DefaultRelayURL = "https://api.textql.com/api/oai"
	DefaultModel    = "text-davinci-003"

	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second
)

// Credentials selects the backend flavor. Exactly one field is set:
// APIKey posts to the completions endpoint with a bearer token, Email
// posts to the relay endpoint with no auth header.
type Credentials struct {
	APIKey string
	Email  string
}

// Delegated reports whether the relay flavor is in use.
func (c Credentials) Delegated() bool {
	return c.APIKey == ""
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	RelayURL    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// withDefaults fills unset fields with the standard backend parameters.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RelayURL == "" {
		c.RelayURL = DefaultRelayURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// completionRequest is the API-key flavor request body.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// relayRequest is the delegated flavor request body.
type relayRequest struct {
	Prompt string `json:"prompt"`
	Email  string `json:"email"`
}

// completionResponse is the shared response shape of both endpoints.
type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Client issues completion requests.
type Client struct {
	cfg    Config
	creds  Credentials
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the given credential flavor.
func NewClient(cfg Config, creds Credentials, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:    cfg,
		creds:  creds,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Complete sends a prompt and returns the first choice's text. Any network
// failure, non-2xx status, or response that does not decode into a
// non-empty choices list is a hard error.
func (c *Client) Complete(ctx context.Context, promptText string) (string, error) {
	url := c.cfg.BaseURL
	var body any = completionRequest{
		Model:       c.cfg.Model,
		Prompt:      promptText,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if c.creds.Delegated() {
		url = c.cfg.RelayURL
		body = relayRequest{Prompt: promptText, Email: c.creds.Email}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.creds.Delegated() {
		req.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
	}

	c.logger.Debug("sending completion request", "url", url, "delegated", c.creds.Delegated())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion request returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var decoded completionResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("malformed completion response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Text == "" {
		return "", fmt.Errorf("completion response contains no choices")
	}

	return decoded.Choices[0].Text, nil
}
