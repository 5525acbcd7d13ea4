// Package config provides configuration management for the LeapDoc CLI.
// Values are layered from defaults, an optional leapdoc.yaml file, LEAPDOC_
// environment variables, and CLI flags, in increasing precedence.
package config

// OpenAIConfig holds completion backend settings.
type OpenAIConfig struct {
	BaseURL        string  `koanf:"base_url"`
	RelayURL       string  `koanf:"relay_url"`
	Model          string  `koanf:"model"`
	Temperature    float64 `koanf:"temperature"`
	MaxTokens      int     `koanf:"max_tokens"`
	ContextWindow  int     `koanf:"context_window"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
}

// RetryConfig bounds the whole-batch retry policy.
type RetryConfig struct {
	MaxAttempts      int `koanf:"max_attempts"`
	InitialBackoffMS int `koanf:"initial_backoff_ms"`
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectDir   string       `koanf:"project_dir"`
	ManifestPath string       `koanf:"manifest"`
	Verbose      bool         `koanf:"verbose"`
	DryRun       bool         `koanf:"dry_run"`
	DocsGenerate bool         `koanf:"docs_generate"`
	Concurrency  int          `koanf:"concurrency"`
	OpenAI       OpenAIConfig `koanf:"openai"`
	Retry        RetryConfig  `koanf:"retry"`
}

// Default configuration values.
const (
	DefaultModel          = "text-davinci-003"
	DefaultTemperature    = 0.2
	DefaultMaxTokens      = 1000
	DefaultContextWindow  = 4096
	DefaultTimeoutSeconds = 60
	DefaultConcurrency    = 8
	DefaultMaxAttempts    = 3
	DefaultBackoffMS      = 1000
)
