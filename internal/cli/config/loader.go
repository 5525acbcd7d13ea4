package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configExistsIn checks if a leapdoc config file exists in the directory.
func configExistsIn(dir string) (string, bool) {
	for _, name := range []string{"leapdoc.yaml", "leapdoc.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// findProjectRootUpward searches upward from startDir for a leapdoc config
// file. Returns empty strings if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) (dir, cfgFile string) {
	dir = startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if candidate, ok := configExistsIn(dir); ok {
			return dir, candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return "", ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"project_dir":              ".",
		"manifest":                 "",
		"verbose":                  false,
		"dry_run":                  false,
		"docs_generate":            true,
		"concurrency":              DefaultConcurrency,
		"openai.model":             DefaultModel,
		"openai.temperature":       DefaultTemperature,
		"openai.max_tokens":        DefaultMaxTokens,
		"openai.context_window":    DefaultContextWindow,
		"openai.timeout_seconds":   DefaultTimeoutSeconds,
		"retry.max_attempts":       DefaultMaxAttempts,
		"retry.initial_backoff_ms": DefaultBackoffMS,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file, searching upward from CWD when no
	// explicit path was given
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			_, cfgFile = findProjectRootUpward(cwd)
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LEAPDOC_ prefix)
	// Transform: LEAPDOC_OPENAI_MODEL is ambiguous for nested keys, so only
	// single-underscore top-level keys map directly: LEAPDOC_PROJECT_DIR ->
	// project_dir, LEAPDOC_DRY_RUN -> dry_run.
	if err := k.Load(env.Provider("LEAPDOC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LEAPDOC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve the project directory and derive the manifest path
	if abs, err := filepath.Abs(cfg.ProjectDir); err == nil {
		cfg.ProjectDir = abs
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = filepath.Join(cfg.ProjectDir, "target", "manifest.json")
	} else if !filepath.IsAbs(cfg.ManifestPath) {
		cfg.ManifestPath = filepath.Join(cfg.ProjectDir, cfg.ManifestPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger. This lets
// the commands package retrieve the logger from context without creating an
// import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
