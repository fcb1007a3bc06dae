package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider talks to the Groq API, which is OpenAI-compatible.
type GroqProvider struct {
	client  openai.Client
	baseURL string
}

func NewGroqProvider(apiKey string) *GroqProvider {
	return NewGroqProviderWithBase(apiKey, "")
}

func NewGroqProviderWithBase(apiKey, apiBase string) *GroqProvider {
	baseURL := strings.TrimRight(apiBase, "/")
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &GroqProvider{
		client:  client,
		baseURL: baseURL,
	}
}

func (p *GroqProvider) Chat(
	ctx context.Context,
	messages []Message,
	model string,
	options map[string]any,
) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: translateMessages(messages),
	}

	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = openai.Float(temp)
	}
	if mt, ok := options["max_tokens"].(int); ok {
		params.MaxTokens = openai.Int(int64(mt))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("groq API call: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *GroqProvider) GetDefaultModel() string {
	return "llama3-8b-8192"
}

func (p *GroqProvider) BaseURL() string {
	return p.baseURL
}

func translateMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "assistant":
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

var _ LLMProvider = (*GroqProvider)(nil)
