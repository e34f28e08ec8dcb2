package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

// ProviderClient is one provider's wire adapter.
type ProviderClient interface {
	Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error)
}

type GatewayConfig struct {
	Claude ProviderClient
	OpenAI ProviderClient
	Logger output.LoggerPort
}

func (c *GatewayConfig) defaults() error {
	if c.Claude == nil {
		return fmt.Errorf("claude client is required")
	}
	if c.OpenAI == nil {
		return fmt.Errorf("openai client is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	c.Logger = c.Logger.WithField("svc", "llm.Gateway")
	return nil
}

// Gateway routes each request to the adapter of its provider and normalizes
// failures into the domain errors.
type Gateway struct {
	clients map[entity.Provider]ProviderClient
	logger  output.LoggerPort
}

var _ output.LLMPort = (*Gateway)(nil)

func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Gateway{
		clients: map[entity.Provider]ProviderClient{
			entity.ProviderClaude: cfg.Claude,
			entity.ProviderOpenAI: cfg.OpenAI,
		},
		logger: cfg.Logger,
	}, nil
}

// Complete runs a plain completion and returns its text.
func (g *Gateway) Complete(ctx context.Context, req output.ChatRequest) (string, error) {
	req.Tools = nil
	resp, err := g.chat(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", req.Provider, entity.ErrNoTextResponse)
	}
	return text, nil
}

// CompleteWithTools runs one tool-enabled turn.
func (g *Gateway) CompleteWithTools(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	return g.chat(ctx, req)
}

func (g *Gateway) chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	client, ok := g.clients[req.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", req.Provider, entity.ErrValidation)
	}
	if req.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", req.Provider, entity.ErrNoAPIKeyAvailable)
	}

	resp, err := client.Chat(ctx, req)
	switch {
	case errors.Is(err, entity.ErrNoTextResponse):
		return nil, err
	case err != nil:
		g.logger.Warn("provider call failed", "provider", req.Provider, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrProviderRequestFailed, req.Provider, err)
	case resp == nil:
		return nil, fmt.Errorf("%s: %w", req.Provider, entity.ErrNoTextResponse)
	}
	return resp, nil
}
