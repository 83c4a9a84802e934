// Package provider abstracts the model backends a reviewer can be invoked
// through. Each panel member is dispatched through the same Provider
// interface, so changing the panel is a configuration change only.
package provider

import (
	"context"
	"fmt"

	"github.com/reviewgate/reviewgate/internal/models"
)

// Request is one prompt sent to a model.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is the raw text a model returned, plus token accounting.
type Response struct {
	Text   string
	Tokens models.TokenUsage
}

// Provider invokes one model backend.
type Provider interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Config holds the per-backend credentials.
type Config struct {
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
}

// Factory builds a Provider for a reviewer spec. The panel dispatcher takes a
// Factory rather than concrete providers so tests can substitute fakes.
type Factory func(spec models.ReviewerSpec) (Provider, error)

// NewFactory returns the production factory backed by the real SDK clients.
func NewFactory(cfg Config) Factory {
	return func(spec models.ReviewerSpec) (Provider, error) {
		switch spec.Provider {
		case models.ProviderAnthropic:
			return newAnthropic(cfg.AnthropicAPIKey, spec.Model)
		case models.ProviderOpenAI:
			return newOpenAI(cfg.OpenAIAPIKey, spec.Model, "")
		case models.ProviderOpenRouter:
			return newOpenAI(cfg.OpenRouterAPIKey, spec.Model, openRouterBaseURL)
		default:
			return nil, fmt.Errorf("unknown provider: %s", spec.Provider)
		}
	}
}
