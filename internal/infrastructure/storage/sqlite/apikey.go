package sqlite

import (
	"context"
	"fmt"

	"better-todo/internal/domain/entity"
)

func (r *Repository) SetAPIKey(ctx context.Context, userID string, provider entity.Provider, key string, paused bool) error {
	if !provider.Valid() {
		return fmt.Errorf("invalid provider %q: %w", provider, entity.ErrValidation)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO api_keys (user_id, provider, api_key, paused) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET api_key = excluded.api_key, paused = excluded.paused`,
		userID, provider, key, boolInt(paused))
	if err != nil {
		return fmt.Errorf("could not store api key: %w", err)
	}
	r.logger.Info("api key stored", "user_id", userID, "provider", provider, "paused", paused)
	return nil
}

func (r *Repository) AvailableAPIKeys(ctx context.Context, userID string) (entity.APIKeys, error) {
	var keys entity.APIKeys
	rows, err := r.db.QueryContext(ctx, `SELECT provider, api_key FROM api_keys WHERE user_id = ? AND paused = 0 AND api_key != ''`, userID)
	if err != nil {
		return keys, fmt.Errorf("could not query api keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider entity.Provider
		var key string
		if err := rows.Scan(&provider, &key); err != nil {
			return keys, fmt.Errorf("could not scan api key: %w", err)
		}
		switch provider {
		case entity.ProviderClaude:
			keys.AnthropicAvailable, keys.AnthropicKey = true, key
		case entity.ProviderOpenAI:
			keys.OpenAIAvailable, keys.OpenAIKey = true, key
		}
	}
	if err := rows.Err(); err != nil {
		return keys, fmt.Errorf("error iterating rows: %w", err)
	}
	return keys, nil
}
