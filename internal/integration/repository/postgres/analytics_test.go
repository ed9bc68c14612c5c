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

func setupAnalyticsRepo(t *testing.T) (*AnalyticsRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewAnalyticsRepository(mock), mock
}

func TestAnalyticsRepository_FetchRows(t *testing.T) {
	repo, mock := setupAnalyticsRepo(t)
	defer mock.Close()

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"api_id", "requests", "errors", "response_time", "created_at"}).
		AddRow("api-1", 120, 3, 95.5, since.Add(time.Hour)).
		AddRow("api-1", 80, 0, 110.0, since.Add(2*time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM api_analytics WHERE api_id =").
		WithArgs("api-1", since).
		WillReturnRows(rows)

	samples, err := repo.FetchRows(context.Background(), "api-1", since)

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 120, samples[0].Requests)
	assert.InDelta(t, 110.0, samples[1].ResponseTime, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_InsertError(t *testing.T) {
	repo, mock := setupAnalyticsRepo(t)
	defer mock.Close()

	entry := &domain.IntegrationError{
		ID:            "err-001",
		IntegrationID: "int-001",
		Operation:     "test_webhook",
		Message:       "delivery failed with status 503",
		Details:       map[string]any{"status": 503},
		Timestamp:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	detailsJSON, _ := json.Marshal(entry.Details)

	mock.ExpectExec("INSERT INTO integration_errors").
		WithArgs(
			entry.ID, entry.IntegrationID, entry.Operation, entry.Message,
			detailsJSON, entry.Timestamp,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertError(context.Background(), entry)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_ListErrors(t *testing.T) {
	repo, mock := setupAnalyticsRepo(t)
	defer mock.Close()

	detailsJSON, _ := json.Marshal(map[string]any{"status": 503})

	rows := pgxmock.NewRows([]string{"id", "integration_id", "operation", "message", "details", "timestamp"}).
		AddRow("err-001", "int-001", "test_webhook", "delivery failed with status 503",
			detailsJSON, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT (.+) FROM integration_errors WHERE integration_id =").
		WithArgs("int-001", 50).
		WillReturnRows(rows)

	entries, err := repo.ListErrors(context.Background(), "int-001", 50)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test_webhook", entries[0].Operation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
