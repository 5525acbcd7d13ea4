package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/config"
	"github.com/leapstack-labs/leapdoc/internal/manifest"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Manifest *manifest.Manifest
}

// NewCommandContext loads the manifest and bundles it with the config and
// logger for a command invocation.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Manifest: m,
	}, nil
}

// getConfig returns the current configuration. It uses
// config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	projectDir := getEnvOrDefault("LEAPDOC_PROJECT_DIR", ".")
	manifestPath := os.Getenv("LEAPDOC_MANIFEST")
	if manifestPath == "" {
		manifestPath = filepath.Join(projectDir, "target", "manifest.json")
	}
	concurrency := config.DefaultConcurrency
	if v, err := strconv.Atoi(os.Getenv("LEAPDOC_CONCURRENCY")); err == nil && v > 0 {
		concurrency = v
	}

	return &config.Config{
		ProjectDir:   projectDir,
		ManifestPath: manifestPath,
		Verbose:      os.Getenv("LEAPDOC_VERBOSE") == "true",
		DryRun:       os.Getenv("LEAPDOC_DRY_RUN") == "true",
		DocsGenerate: os.Getenv("LEAPDOC_DOCS_GENERATE") != "false",
		Concurrency:  concurrency,
		OpenAI: config.OpenAIConfig{
			Model:          config.DefaultModel,
			Temperature:    config.DefaultTemperature,
			MaxTokens:      config.DefaultMaxTokens,
			ContextWindow:  config.DefaultContextWindow,
			TimeoutSeconds: config.DefaultTimeoutSeconds,
		},
		Retry: config.RetryConfig{
			MaxAttempts:      config.DefaultMaxAttempts,
			InitialBackoffMS: config.DefaultBackoffMS,
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
