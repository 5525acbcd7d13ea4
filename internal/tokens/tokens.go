// Package tokens estimates prompt sizes and enforces the completion
// backend's context window before any network call is made.
package tokens

import (
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// ErrTooManyTokens marks a prompt that cannot fit the backend's context
// window together with the reserved completion space. It is recovered
// locally by dropping the affected node, never escalated to the batch.
var ErrTooManyTokens = errors.New("prompt exceeds the model's context window")

// Defaults matching the completion backend.
const (
	DefaultContextWindow      = 4096
	DefaultReservedCompletion = 1000

	// encoding consistent with the backend's GPT tokenization
	encodingName = "gpt2"
)

// Estimator counts the tokens of a prompt.
type Estimator interface {
	Count(text string) (int, error)
}

// tiktokenEstimator wraps a tiktoken encoding.
type tiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewEstimator returns an Estimator backed by the GPT-2 BPE vocabulary.
func NewEstimator() (Estimator, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &tiktokenEstimator{encoding: encoding}, nil
}

func (e *tiktokenEstimator) Count(text string) (int, error) {
	return len(e.encoding.Encode(text, nil, nil)), nil
}

// Budget is the context-window policy applied to every prompt.
type Budget struct {
	// ContextWindow is the backend's combined prompt+completion limit
	ContextWindow int
	// ReservedCompletion is the output space reserved per request
	ReservedCompletion int
}

// DefaultBudget returns the standard budget (4096 window, 1000 reserved).
func DefaultBudget() Budget {
	return Budget{
		ContextWindow:      DefaultContextWindow,
		ReservedCompletion: DefaultReservedCompletion,
	}
}

// Check fails with ErrTooManyTokens when the prompt plus the reserved
// completion space does not fit the context window. Prompts are rejected,
// never truncated.
func (b Budget) Check(promptTokens int) error {
	if promptTokens+b.ReservedCompletion >= b.ContextWindow {
		return fmt.Errorf("%w: %d prompt + %d reserved >= %d window",
			ErrTooManyTokens, promptTokens, b.ReservedCompletion, b.ContextWindow)
	}
	return nil
}

// CheckPrompt estimates a prompt with the given estimator and applies the
// budget in one step.
func (b Budget) CheckPrompt(estimator Estimator, prompt string) error {
	count, err := estimator.Count(prompt)
	if err != nil {
		return fmt.Errorf("token estimation failed: %w", err)
	}
	return b.Check(count)
}
