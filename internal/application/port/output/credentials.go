package output

import (
	"context"

	"better-todo/internal/domain/entity"
)

type CredentialsPort interface {
	AvailableAPIKeys(ctx context.Context, userID string) (entity.APIKeys, error)
}

// APIKeyStore persists per-user provider keys. A paused key stays stored but is
// reported as unavailable.
type APIKeyStore interface {
	CredentialsPort
	SetAPIKey(ctx context.Context, userID string, provider entity.Provider, key string, paused bool) error
}
