package postgres

import (
	"context"
	"fmt"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

// APIKeyRepository implements repository.APIKeyRepository using PostgreSQL.
type APIKeyRepository struct {
	pool database.DBTX
}

// NewAPIKeyRepository creates a new PostgreSQL-backed API key repository.
func NewAPIKeyRepository(pool database.DBTX) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// Create inserts a new API key.
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, user_id, integration_id, name, secret, permissions,
			is_active, expires_at, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		key.ID, key.UserID, key.IntegrationID, key.Name, key.Secret,
		key.Permissions, key.IsActive, key.ExpiresAt, key.LastUsed, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	return nil
}

// ListByUser returns all of the user's keys, newest first.
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	query := `
		SELECT id, user_id, integration_id, name, secret, permissions,
			is_active, expires_at, last_used, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]domain.APIKey, 0)
	for rows.Next() {
		var key domain.APIKey
		err := rows.Scan(
			&key.ID, &key.UserID, &key.IntegrationID, &key.Name, &key.Secret,
			&key.Permissions, &key.IsActive, &key.ExpiresAt, &key.LastUsed,
			&key.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan api key row: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api key rows: %w", err)
	}

	return keys, nil
}

// Revoke deactivates a key. The record is retained for audit.
func (r *APIKeyRepository) Revoke(ctx context.Context, userID, keyID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET is_active = false WHERE id = $1 AND user_id = $2`,
		keyID, userID,
	)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("api key", keyID)
	}

	return nil
}
