// Package credentials resolves the completion backend credential: a direct
// API key from the environment, or an interactively supplied email address
// for the delegated relay flavor.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/leapdoc/internal/openai"
)

// EnvAPIKey is the environment variable holding the direct API key.
const EnvAPIKey = "OPENAI_API_KEY"

// ErrCredentialsMissing is returned when no API key is set and the user
// declines to supply an email address. It is fatal: no work starts without
// a credential.
var ErrCredentialsMissing = errors.New("no API key set and no email provided")

// Resolve returns the credential flavor to use. The lookup function
// abstracts os.Getenv for tests; promptEmail is invoked only when the
// environment has no key.
func Resolve(lookupEnv func(string) (string, bool), promptEmail func() (string, error)) (openai.Credentials, error) {
	if key, ok := lookupEnv(EnvAPIKey); ok && key != "" {
		return openai.Credentials{APIKey: key}, nil
	}

	email, err := promptEmail()
	if err != nil {
		return openai.Credentials{}, err
	}
	return openai.Credentials{Email: email}, nil
}

// PromptEmail interactively asks for an email address on the terminal.
// Typing "no" aborts with ErrCredentialsMissing.
func PromptEmail(out io.Writer) (string, error) {
	fmt.Fprintln(out, "You haven't specified an API Key. No worries, this one's on the relay!")
	fmt.Fprintln(out, "In return, please type your email address. We don't collect any other data, nor sell your email to third parties.")
	fmt.Fprintln(out, "If you're okay with this, enter your email. Otherwise, type 'no' and set the "+EnvAPIKey+" environment variable.")

	rl, err := readline.New("Email (type no to abort): ")
	if err != nil {
		return "", fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrCredentialsMissing
		}
		return "", fmt.Errorf("failed to read email: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "no") {
		return "", ErrCredentialsMissing
	}
	return line, nil
}
