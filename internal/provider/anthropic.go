package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/reviewgate/reviewgate/internal/models"
)

// anthropicProvider invokes a model through the Anthropic Messages API.
type anthropicProvider struct {
	api   *anthropic.Client
	model anthropic.Model
}

func newAnthropic(apiKey, model string) (*anthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is not configured")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{
		api:   &client,
		model: anthropic.Model(model),
	}, nil
}

func (p *anthropicProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	msg, err := p.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Response{}, fmt.Errorf("no text content in API response")
	}

	return Response{
		Text: text,
		Tokens: models.TokenUsage{
			Input:  int(msg.Usage.InputTokens),
			Output: int(msg.Usage.OutputTokens),
		},
	}, nil
}
