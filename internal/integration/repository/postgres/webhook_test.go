package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/database"
)

func setupWebhookRepo(t *testing.T) (*WebhookRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewWebhookRepository(mock), mock
}

func sampleWebhook() *domain.Webhook {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	return &domain.Webhook{
		ID:     "wh-001",
		UserID: "user-001",
		Name:   "Patent status notifier",
		URL:    "https://hooks.acme.com/patents",
		Events: []string{"patent.status_changed", "patent.granted"},
		Headers: map[string]string{
			"X-Environment": "production",
		},
		Auth: domain.WebhookAuth{
			Type:   domain.WebhookAuthBearer,
			Secret: "hook-token-1",
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWebhookRepository_Create_Success(t *testing.T) {
	repo, mock := setupWebhookRepo(t)
	defer mock.Close()

	wh := sampleWebhook()
	headersJSON, _ := json.Marshal(wh.Headers)
	authJSON, _ := json.Marshal(wh.Auth)

	mock.ExpectExec("INSERT INTO webhooks").
		WithArgs(
			wh.ID, wh.UserID, wh.Name, wh.URL, wh.Events, headersJSON,
			authJSON, wh.IsActive, wh.CreatedAt, wh.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), wh)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupWebhookRepo(t)
	defer mock.Close()

	wh := sampleWebhook()
	headersJSON, _ := json.Marshal(wh.Headers)
	authJSON, _ := json.Marshal(wh.Auth)

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "name", "url", "events", "headers", "auth",
		"is_active", "created_at", "updated_at",
	}).AddRow(
		wh.ID, wh.UserID, wh.Name, wh.URL, wh.Events, headersJSON,
		authJSON, wh.IsActive, wh.CreatedAt, wh.UpdatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM webhooks WHERE id =").
		WithArgs(wh.ID, wh.UserID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), wh.UserID, wh.ID)

	require.NoError(t, err)
	assert.Equal(t, wh.URL, got.URL)
	assert.Equal(t, wh.Events, got.Events)
	assert.Equal(t, wh.Headers, got.Headers)
	assert.Equal(t, wh.Auth, got.Auth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepository_InsertLog_Success(t *testing.T) {
	repo, mock := setupWebhookRepo(t)
	defer mock.Close()

	entry := &domain.WebhookLog{
		ID:        "log-001",
		WebhookID: "wh-001",
		Event:     "webhook.test",
		Payload:   map[string]any{"test": true},
		Response: &domain.WebhookResponse{
			Status: 200,
			Body:   "ok",
		},
		Attempt:          1,
		Success:          true,
		ProcessingTimeMS: 42,
		Timestamp:        time.Date(2026, 2, 15, 11, 0, 0, 0, time.UTC),
	}
	payloadJSON, _ := json.Marshal(entry.Payload)
	responseJSON, _ := json.Marshal(entry.Response)

	mock.ExpectExec("INSERT INTO webhook_logs").
		WithArgs(
			entry.ID, entry.WebhookID, entry.Event, payloadJSON, responseJSON,
			entry.Attempt, entry.Success, entry.Error, entry.ProcessingTimeMS,
			entry.Timestamp,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertLog(context.Background(), entry)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepository_ListLogs_AppliesLimit(t *testing.T) {
	repo, mock := setupWebhookRepo(t)
	defer mock.Close()

	payloadJSON, _ := json.Marshal(map[string]any{"test": true})
	responseJSON, _ := json.Marshal(&domain.WebhookResponse{Status: 503, Body: "unavailable"})

	rows := pgxmock.NewRows([]string{
		"id", "webhook_id", "event", "payload", "response", "attempt",
		"success", "error", "processing_time_ms", "timestamp",
	}).AddRow(
		"log-001", "wh-001", "webhook.test", payloadJSON, responseJSON,
		1, false, "delivery failed with status 503", int64(310),
		time.Date(2026, 2, 15, 11, 0, 0, 0, time.UTC),
	)

	mock.ExpectQuery("SELECT (.+) FROM webhook_logs WHERE webhook_id = (.+) LIMIT").
		WithArgs("wh-001", 100).
		WillReturnRows(rows)

	logs, err := repo.ListLogs(context.Background(), "wh-001", 100)

	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Equal(t, 503, logs[0].Response.Status)
	assert.Equal(t, map[string]any{"test": true}, logs[0].Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}
