// Package provider routes articulation prompts to the configured AI service
// and normalizes both providers' responses into plain text or a typed
// failure.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"articulate/internal/logging"
)

// Provider identifiers accepted in credentials.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Generation settings shared by the adapters: a comment is short, and the
// tone blocks want some variety without going off the rails.
const (
	maxOutputTokens = 150
	temperature     = 0.7
)

// RateLimitMsg is returned as the generated text, not as an error, when the
// OpenAI endpoint answers 429.
const RateLimitMsg = "Rate limit exceeded. Please try again later."

// Credentials is the user's AI configuration. It crosses the bridge as a
// whole and is replaced wholesale, never field-merged.
type Credentials struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
}

// Params is one dispatch request.
type Params struct {
	Provider string
	Model    string
	APIKey   string
	Prompt   string
}

// Generator produces text for a prompt against one provider.
type Generator interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Error is a failure reported by a provider endpoint.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrCommunication is the single error callers of the dispatcher see;
// the original cause is logged, never surfaced.
var ErrCommunication = errors.New("something went wrong while communicating with the AI provider")

// Dispatcher validates request parameters, selects the adapter, and folds
// every adapter failure into ErrCommunication.
type Dispatcher struct {
	log logging.Scoped

	// adapter factories, swappable in tests
	newOpenAI func(apiKey string) Generator
	newGemini func(apiKey string) Generator
}

// NewDispatcher creates a Dispatcher with the real adapters.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		log:       logging.Scope("dispatcher"),
		newOpenAI: func(apiKey string) Generator { return NewOpenAI(apiKey) },
		newGemini: func(apiKey string) Generator { return NewGemini(apiKey) },
	}
}

// Generate routes the prompt to the configured provider. All four fields of
// p must be non-empty; a violation fails fast before any network I/O.
func (d *Dispatcher) Generate(ctx context.Context, p Params) (string, error) {
	var missing []string
	if p.Provider == "" {
		missing = append(missing, "provider")
	}
	if p.Model == "" {
		missing = append(missing, "model")
	}
	if p.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if p.Prompt == "" {
		missing = append(missing, "prompt")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}

	var gen Generator
	switch p.Provider {
	case ProviderOpenAI:
		gen = d.newOpenAI(p.APIKey)
	case ProviderGemini:
		gen = d.newGemini(p.APIKey)
	default:
		return "", fmt.Errorf("unknown provider %q", p.Provider)
	}

	text, err := gen.Generate(ctx, p.Model, p.Prompt)
	if err != nil {
		d.log.Errorf("%s generation failed: %v", gen.Name(), err)
		return "", ErrCommunication
	}
	return text, nil
}
