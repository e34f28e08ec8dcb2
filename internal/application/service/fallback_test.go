package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-todo/internal/application/service"
	"better-todo/internal/domain/entity"
)

func keys(anthropic, openai bool) entity.APIKeys {
	k := entity.APIKeys{AnthropicAvailable: anthropic, OpenAIAvailable: openai}
	if anthropic {
		k.AnthropicKey = "sk-ant"
	}
	if openai {
		k.OpenAIKey = "sk-oai"
	}
	return k
}

func TestResolveProvider(t *testing.T) {
	for _, preferred := range []entity.Provider{entity.ProviderClaude, entity.ProviderOpenAI} {
		for _, anthropic := range []bool{true, false} {
			for _, openai := range []bool{true, false} {
				name := fmt.Sprintf("preferred=%s anthropic=%t openai=%t", preferred, anthropic, openai)
				t.Run(name, func(t *testing.T) {
					available := map[entity.Provider]bool{
						entity.ProviderClaude: anthropic,
						entity.ProviderOpenAI: openai,
					}

					got, err := service.ResolveProvider(preferred, keys(anthropic, openai))

					switch {
					case available[preferred]:
						require.NoError(t, err)
						assert.Equal(t, preferred, got.Provider)
						assert.False(t, got.Fallback(preferred))
					case available[preferred.Other()]:
						require.NoError(t, err)
						assert.Equal(t, preferred.Other(), got.Provider)
						assert.True(t, got.Fallback(preferred))
					default:
						assert.ErrorIs(t, err, entity.ErrNoAPIKeyAvailable)
					}
				})
			}
		}
	}
}

func TestResolveProvider_ReturnsMatchingKey(t *testing.T) {
	got, err := service.ResolveProvider(entity.ProviderClaude, keys(false, true))
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderOpenAI, got.Provider)
	assert.Equal(t, "sk-oai", got.APIKey)
}

func TestResolveProvider_AvailableFlagWithoutKeyIsUnusable(t *testing.T) {
	_, err := service.ResolveProvider(entity.ProviderOpenAI, entity.APIKeys{OpenAIAvailable: true})
	assert.ErrorIs(t, err, entity.ErrNoAPIKeyAvailable)
}

func TestResolveProvider_UnknownProvider(t *testing.T) {
	_, err := service.ResolveProvider(entity.Provider("gemini"), keys(true, true))
	assert.ErrorIs(t, err, entity.ErrValidation)
}
