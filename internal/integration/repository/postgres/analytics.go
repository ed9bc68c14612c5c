package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/database"
)

// AnalyticsRepository implements repository.AnalyticsRepository using
// PostgreSQL.
type AnalyticsRepository struct {
	pool database.DBTX
}

// NewAnalyticsRepository creates a new PostgreSQL-backed analytics
// repository.
func NewAnalyticsRepository(pool database.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// FetchRows returns the usage samples of an API since the given instant, in
// chronological order.
func (r *AnalyticsRepository) FetchRows(ctx context.Context, apiID string, since time.Time) ([]domain.AnalyticsRow, error) {
	query := `
		SELECT api_id, requests, errors, response_time, created_at
		FROM api_analytics
		WHERE api_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, apiID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch analytics rows: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.AnalyticsRow, 0)
	for rows.Next() {
		var row domain.AnalyticsRow
		if err := rows.Scan(&row.APIID, &row.Requests, &row.Errors, &row.ResponseTime, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		samples = append(samples, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics rows: %w", err)
	}

	return samples, nil
}

// InsertError appends an integration error audit entry.
func (r *AnalyticsRepository) InsertError(ctx context.Context, entry *domain.IntegrationError) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal error details: %w", err)
	}

	query := `
		INSERT INTO integration_errors (id, integration_id, operation, message, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.pool.Exec(ctx, query,
		entry.ID, entry.IntegrationID, entry.Operation, entry.Message,
		detailsJSON, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert integration error: %w", err)
	}

	return nil
}

// ListErrors returns the most recent error entries of an integration.
func (r *AnalyticsRepository) ListErrors(ctx context.Context, integrationID string, limit int) ([]domain.IntegrationError, error) {
	query := `
		SELECT id, integration_id, operation, message, details, timestamp
		FROM integration_errors
		WHERE integration_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, integrationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list integration errors: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.IntegrationError, 0)
	for rows.Next() {
		var (
			entry       domain.IntegrationError
			detailsJSON []byte
		)
		err := rows.Scan(
			&entry.ID, &entry.IntegrationID, &entry.Operation,
			&entry.Message, &detailsJSON, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan integration error row: %w", err)
		}

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal error details: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integration error rows: %w", err)
	}

	return entries, nil
}
