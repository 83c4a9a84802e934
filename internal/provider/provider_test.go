package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/models"
)

func TestNewFactory(t *testing.T) {
	cfg := Config{
		AnthropicAPIKey:  "ak",
		OpenAIAPIKey:     "ok",
		OpenRouterAPIKey: "rk",
	}
	factory := NewFactory(cfg)

	t.Run("anthropic", func(t *testing.T) {
		p, err := factory(models.ReviewerSpec{Provider: models.ProviderAnthropic, Model: "claude-sonnet-4-5"})
		require.NoError(t, err)
		assert.IsType(t, &anthropicProvider{}, p)
	})

	t.Run("openai", func(t *testing.T) {
		p, err := factory(models.ReviewerSpec{Provider: models.ProviderOpenAI, Model: "gpt-4.1"})
		require.NoError(t, err)
		assert.IsType(t, &openaiProvider{}, p)
	})

	t.Run("openrouter", func(t *testing.T) {
		p, err := factory(models.ReviewerSpec{Provider: models.ProviderOpenRouter, Model: "deepseek/deepseek-chat-v3-0324"})
		require.NoError(t, err)
		assert.IsType(t, &openaiProvider{}, p)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := factory(models.ReviewerSpec{Provider: "bedrock", Model: "x"})
		assert.ErrorContains(t, err, "unknown provider")
	})
}

func TestNewFactory_MissingKeys(t *testing.T) {
	factory := NewFactory(Config{})

	for _, kind := range []models.ProviderKind{
		models.ProviderAnthropic,
		models.ProviderOpenAI,
		models.ProviderOpenRouter,
	} {
		_, err := factory(models.ReviewerSpec{Provider: kind, Model: "m"})
		assert.Error(t, err, "provider %s should require a key", kind)
	}
}
