package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

const webhookColumns = `id, user_id, name, url, events, headers, auth, is_active, created_at, updated_at`

// WebhookRepository implements repository.WebhookRepository using PostgreSQL.
type WebhookRepository struct {
	pool database.DBTX
}

// NewWebhookRepository creates a new PostgreSQL-backed webhook repository.
func NewWebhookRepository(pool database.DBTX) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// Create inserts a new webhook.
func (r *WebhookRepository) Create(ctx context.Context, wh *domain.Webhook) error {
	headersJSON, err := json.Marshal(wh.Headers)
	if err != nil {
		return fmt.Errorf("marshal webhook headers: %w", err)
	}
	authJSON, err := json.Marshal(wh.Auth)
	if err != nil {
		return fmt.Errorf("marshal webhook auth: %w", err)
	}

	query := `
		INSERT INTO webhooks (id, user_id, name, url, events, headers, auth, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		wh.ID, wh.UserID, wh.Name, wh.URL, wh.Events, headersJSON, authJSON,
		wh.IsActive, wh.CreatedAt, wh.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}

	return nil
}

// GetByID retrieves one of the user's webhooks.
func (r *WebhookRepository) GetByID(ctx context.Context, userID, id string) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1 AND user_id = $2`

	wh, err := scanWebhook(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("webhook", id)
		}
		return nil, fmt.Errorf("scan webhook: %w", err)
	}

	return wh, nil
}

// ListByUser returns all of the user's webhooks, newest first.
func (r *WebhookRepository) ListByUser(ctx context.Context, userID string) ([]domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]domain.Webhook, 0)
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook row: %w", err)
		}
		webhooks = append(webhooks, *wh)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook rows: %w", err)
	}

	return webhooks, nil
}

// InsertLog appends a delivery log entry.
func (r *WebhookRepository) InsertLog(ctx context.Context, log *domain.WebhookLog) error {
	payloadJSON, err := json.Marshal(log.Payload)
	if err != nil {
		return fmt.Errorf("marshal log payload: %w", err)
	}
	responseJSON, err := json.Marshal(log.Response)
	if err != nil {
		return fmt.Errorf("marshal log response: %w", err)
	}

	query := `
		INSERT INTO webhook_logs (id, webhook_id, event, payload, response, attempt,
			success, error, processing_time_ms, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		log.ID, log.WebhookID, log.Event, payloadJSON, responseJSON,
		log.Attempt, log.Success, log.Error, log.ProcessingTimeMS, log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}

	return nil
}

// ListLogs returns the most recent delivery logs of a webhook.
func (r *WebhookRepository) ListLogs(ctx context.Context, webhookID string, limit int) ([]domain.WebhookLog, error) {
	query := `
		SELECT id, webhook_id, event, payload, response, attempt,
			success, error, processing_time_ms, timestamp
		FROM webhook_logs
		WHERE webhook_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.WebhookLog, 0)
	for rows.Next() {
		var (
			entry        domain.WebhookLog
			payloadJSON  []byte
			responseJSON []byte
		)
		err := rows.Scan(
			&entry.ID, &entry.WebhookID, &entry.Event, &payloadJSON,
			&responseJSON, &entry.Attempt, &entry.Success, &entry.Error,
			&entry.ProcessingTimeMS, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan webhook log row: %w", err)
		}

		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &entry.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal log payload: %w", err)
			}
		}
		if len(responseJSON) > 0 {
			if err := json.Unmarshal(responseJSON, &entry.Response); err != nil {
				return nil, fmt.Errorf("unmarshal log response: %w", err)
			}
		}

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook log rows: %w", err)
	}

	return logs, nil
}

func scanWebhook(row pgx.Row) (*domain.Webhook, error) {
	var (
		wh          domain.Webhook
		headersJSON []byte
		authJSON    []byte
	)

	err := row.Scan(
		&wh.ID, &wh.UserID, &wh.Name, &wh.URL, &wh.Events, &headersJSON,
		&authJSON, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &wh.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal webhook headers: %w", err)
		}
	}
	if len(authJSON) > 0 {
		if err := json.Unmarshal(authJSON, &wh.Auth); err != nil {
			return nil, fmt.Errorf("unmarshal webhook auth: %w", err)
		}
	}

	return &wh, nil
}
