package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"newspaper-reader/internal/domain"
)

const secretsTable = "secrets"

// SupabaseSecretRepository reads named secrets from the secrets table.
type SupabaseSecretRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseSecretRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.SecretRepository {
	return &SupabaseSecretRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// GetSecret returns the value stored under name.
func (r *SupabaseSecretRepository) GetSecret(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return "", fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(secretsTable).
		Select("value", "", false).
		Eq("name", name).
		Limit(1, "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	var rows []struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 || rows[0].Value == "" {
		return "", fmt.Errorf("secret %s not found", name)
	}
	return rows[0].Value, nil
}
