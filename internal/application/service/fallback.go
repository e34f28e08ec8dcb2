package service

import (
	"context"
	"fmt"

	"better-todo/internal/application/port/output"
	"better-todo/internal/domain/entity"
)

// ResolvedProvider is the provider and credential a run actually uses.
type ResolvedProvider struct {
	Provider entity.Provider
	APIKey   string
}

// Fallback reports whether the resolved provider differs from the requested one.
func (r ResolvedProvider) Fallback(requested entity.Provider) bool {
	return r.Provider != requested
}

// ResolveProvider applies the fallback policy: the preferred provider when its
// key is usable, otherwise the other provider when its key is usable, otherwise
// entity.ErrNoAPIKeyAvailable.
func ResolveProvider(preferred entity.Provider, keys entity.APIKeys) (ResolvedProvider, error) {
	if !preferred.Valid() {
		return ResolvedProvider{}, fmt.Errorf("unknown provider %q: %w", preferred, entity.ErrValidation)
	}

	for _, p := range []entity.Provider{preferred, preferred.Other()} {
		if key, ok := usableKey(p, keys); ok {
			return ResolvedProvider{Provider: p, APIKey: key}, nil
		}
	}
	return ResolvedProvider{}, entity.ErrNoAPIKeyAvailable
}

func usableKey(p entity.Provider, keys entity.APIKeys) (string, bool) {
	switch p {
	case entity.ProviderClaude:
		return keys.AnthropicKey, keys.AnthropicAvailable && keys.AnthropicKey != ""
	case entity.ProviderOpenAI:
		return keys.OpenAIKey, keys.OpenAIAvailable && keys.OpenAIKey != ""
	}
	return "", false
}

// ResolveForUser loads userID's current keys and applies ResolveProvider. Keys are
// read on every call so a run sees pauses and new keys made since creation.
func ResolveForUser(ctx context.Context, creds output.CredentialsPort, userID string, preferred entity.Provider) (ResolvedProvider, error) {
	keys, err := creds.AvailableAPIKeys(ctx, userID)
	if err != nil {
		return ResolvedProvider{}, fmt.Errorf("could not load api keys: %w", err)
	}
	return ResolveProvider(preferred, keys)
}
