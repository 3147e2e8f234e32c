package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/api/iterator"
	gapioption "google.golang.org/api/option"
)

// Verification errors, distinguished so the setup flow can tell the user
// whether to fix the key or the model.
var (
	ErrInvalidKey     = errors.New("invalid API key")
	ErrModelNotFound  = errors.New("model not found")
	ErrVerifyExchange = errors.New("verification request failed")
)

// VerifyCredentials checks a key/model pair against the configured provider
// by listing models and issuing a minimal generation.
func VerifyCredentials(ctx context.Context, creds Credentials) error {
	switch creds.Provider {
	case ProviderOpenAI:
		return VerifyOpenAI(ctx, creds.APIKey, creds.Model)
	case ProviderGemini:
		return VerifyGemini(ctx, creds.APIKey, creds.Model)
	default:
		return fmt.Errorf("unknown provider %q", creds.Provider)
	}
}

// VerifyOpenAI lists the account's models, requires the selected one to be
// present, then runs a one-token deterministic completion to prove the pair
// actually works. Extra request options let tests redirect the SDK.
func VerifyOpenAI(ctx context.Context, apiKey, model string, opts ...option.RequestOption) error {
	ro := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(ro...)

	found := false
	iter := client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		if iter.Current().ID == model {
			found = true
			break
		}
	}
	if err := iter.Err(); err != nil {
		return classifyOpenAIVerifyErr(err, "list models")
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrModelNotFound, model)
	}

	_, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hi"),
		},
		MaxTokens:   openai.Int(1),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return classifyOpenAIVerifyErr(err, "test completion")
	}
	return nil
}

func classifyOpenAIVerifyErr(err error, stage string) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusUnauthorized {
		return ErrInvalidKey
	}
	return fmt.Errorf("%w: %s: %v", ErrVerifyExchange, stage, err)
}

// VerifyGemini lists available Gemini models, requires a name containing the
// selected model, then issues a minimal generation.
func VerifyGemini(ctx context.Context, apiKey, model string, opts ...gapioption.ClientOption) error {
	co := append([]gapioption.ClientOption{gapioption.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, co...)
	if err != nil {
		return fmt.Errorf("%w: create client: %v", ErrVerifyExchange, err)
	}
	defer client.Close()

	found := false
	it := client.ListModels(ctx)
	for {
		info, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "api key") {
				return ErrInvalidKey
			}
			return fmt.Errorf("%w: list models: %v", ErrVerifyExchange, err)
		}
		if strings.Contains(info.Name, model) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrModelNotFound, model)
	}

	resp, err := client.GenerativeModel(model).GenerateContent(ctx, genai.Text("Hello"))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unauthorized") {
			return ErrInvalidKey
		}
		return fmt.Errorf("%w: test generation: %v", ErrVerifyExchange, err)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: empty test generation", ErrVerifyExchange)
	}
	return nil
}
