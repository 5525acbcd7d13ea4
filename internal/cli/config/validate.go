package config

import "fmt"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ProjectDir == "" {
		return fmt.Errorf("project_dir is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.OpenAI.MaxTokens >= c.OpenAI.ContextWindow {
		return fmt.Errorf("openai.max_tokens (%d) must be smaller than openai.context_window (%d)",
			c.OpenAI.MaxTokens, c.OpenAI.ContextWindow)
	}
	return nil
}
