package providers

import (
	"context"
	"errors"

	"github.com/pibot-ai/pibot/pkg/config"
)

// ErrNoContent is returned when the upstream model call succeeded but
// produced no usable text.
var ErrNoContent = errors.New("model returned no content")

// Message is a single turn in a model conversation.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// LLMProvider is the completion backend used for /api/generate and for
// platform auto-replies.
type LLMProvider interface {
	// Chat sends the conversation to the model and returns the generated
	// text. Supported options: "temperature" (float64), "max_tokens" (int).
	Chat(ctx context.Context, messages []Message, model string, options map[string]any) (string, error)
	GetDefaultModel() string
}

// CreateProvider picks the completion backend from config: Groq when its key
// is set (the default for this deployment), Anthropic otherwise.
func CreateProvider(cfg *config.Config) (LLMProvider, error) {
	switch {
	case cfg.Providers.Groq.APIKey != "":
		return NewGroqProviderWithBase(cfg.Providers.Groq.APIKey, cfg.Providers.Groq.APIBase), nil
	case cfg.Providers.Anthropic.APIKey != "":
		return NewAnthropicProviderWithBase(cfg.Providers.Anthropic.APIKey, cfg.Providers.Anthropic.APIBase), nil
	default:
		return nil, errors.New("no provider API key configured")
	}
}
