package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI generates comments through the chat-completions API via the
// official SDK.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates the adapter. Extra request options (base URL, custom
// transport) are appended after the defaults, so tests can point the SDK at
// a local server. Retries are disabled: a failed call surfaces immediately.
func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	ro := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &OpenAI{client: openai.NewClient(ro...)}
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string { return ProviderOpenAI }

// Generate issues a single-user-message chat completion and returns the
// trimmed text. HTTP 429 is not an error: the rate-limit notice is returned
// as the generated text so it lands in the editor like any other reply.
func (p *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(maxOutputTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			if apierr.StatusCode == http.StatusTooManyRequests {
				return RateLimitMsg, nil
			}
			msg := apierr.Message
			if msg == "" {
				msg = http.StatusText(apierr.StatusCode)
			}
			return "", &Error{
				Provider:   ProviderOpenAI,
				StatusCode: apierr.StatusCode,
				Message:    fmt.Sprintf("OpenAI API error: %s", msg),
			}
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Provider: ProviderOpenAI, Message: "empty response from OpenAI"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Provider: ProviderOpenAI, Message: "empty response from OpenAI"}
	}
	return text, nil
}
