package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/reviewgate/reviewgate/internal/models"
)

// OpenRouter speaks the chat-completions wire format, so the same client
// serves both backends with a different base URL.
const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openaiProvider invokes a model through an OpenAI-compatible
// chat-completions API.
type openaiProvider struct {
	api   openai.Client
	model string
}

func newOpenAI(apiKey, model, baseURL string) (*openaiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is not configured")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiProvider{
		api:   openai.NewClient(opts...),
		model: model,
	}, nil
}

func (p *openaiProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	completion, err := p.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat completions API call: %w", err)
	}

	if len(completion.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in API response")
	}
	text := completion.Choices[0].Message.Content
	if text == "" {
		return Response{}, fmt.Errorf("no text content in API response")
	}

	return Response{
		Text: text,
		Tokens: models.TokenUsage{
			Input:  int(completion.Usage.PromptTokens),
			Output: int(completion.Usage.CompletionTokens),
		},
	}, nil
}
