// Package credentials reads provider API keys from operator configuration.
package credentials

import (
	"context"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

var _ output.CredentialsPort = (*EnvProvider)(nil)

const (
	KeyAnthropicAPIKey = "ANTHROPIC_API_KEY"
	KeyAnthropicPaused = "ANTHROPIC_PAUSED"
	KeyOpenAIAPIKey    = "OPENAI_API_KEY"
	KeyOpenAIPaused    = "OPENAI_PAUSED"
)

// EnvProvider serves the same keys to every user. It backs the single-user CLI.
type EnvProvider struct {
	config output.ConfigPort
}

func NewEnvProvider(config output.ConfigPort) *EnvProvider {
	return &EnvProvider{config: config}
}

// AvailableAPIKeys is read on every call so a paused key takes effect without a
// restart when the environment changes.
func (p *EnvProvider) AvailableAPIKeys(ctx context.Context, userID string) (entity.APIKeys, error) {
	anthropic := p.config.Get(KeyAnthropicAPIKey)
	openai := p.config.Get(KeyOpenAIAPIKey)
	return entity.APIKeys{
		AnthropicAvailable: anthropic != "" && !p.config.GetBool(KeyAnthropicPaused, false),
		AnthropicKey:       anthropic,
		OpenAIAvailable:    openai != "" && !p.config.GetBool(KeyOpenAIPaused, false),
		OpenAIKey:          openai,
	}, nil
}
