package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

func activeWebhook(url string) *domain.Webhook {
	now := time.Now().UTC()
	return &domain.Webhook{
		ID:     "wh-001",
		UserID: "user-001",
		Name:   "Patent status notifier",
		URL:    url,
		Events: []string{"patent.status_changed"},
		Headers: map[string]string{
			"X-Environment": "test",
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

func TestCreateWebhook_Success(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	var created *domain.Webhook
	r.webhooks.On("Create", ctx, mock.AnythingOfType("*domain.Webhook")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.Webhook)
	}).Return(nil)

	wh, err := svc.CreateWebhook(ctx, "user-001", CreateWebhookInput{
		Name:   "Notifier",
		URL:    "https://hooks.acme.com/patents",
		Events: []string{"patent.granted"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, wh.ID)
	assert.True(t, wh.IsActive)
	assert.Equal(t, domain.WebhookAuthNone, wh.Auth.Type)
	assert.Equal(t, wh, created)
}

func TestCreateWebhook_InvalidURL(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)

	wh, err := svc.CreateWebhook(context.Background(), "user-001", CreateWebhookInput{
		Name:   "Notifier",
		URL:    "not a url",
		Events: []string{"patent.granted"},
	})

	assert.Nil(t, wh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	r.webhooks.AssertNotCalled(t, "Create")
}

func TestCreateWebhook_NoEvents(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)

	wh, err := svc.CreateWebhook(context.Background(), "user-001", CreateWebhookInput{
		Name: "Notifier",
		URL:  "https://hooks.acme.com/patents",
	})

	assert.Nil(t, wh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTestWebhook_SuccessfulDelivery(t *testing.T) {
	var gotAuth, gotEnv, gotContentType string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotEnv = req.Header.Get("X-Environment")
		gotContentType = req.Header.Get("Content-Type")
		_ = json.NewDecoder(req.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	wh := activeWebhook(server.URL)
	var logged *domain.WebhookLog

	r.webhooks.On("GetByID", ctx, "user-001", "wh-001").Return(wh, nil)
	r.webhooks.On("InsertLog", ctx, mock.AnythingOfType("*domain.WebhookLog")).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*domain.WebhookLog)
	}).Return(nil).Once()

	result := svc.TestWebhook(ctx, WebhookTestRequest{
		UserID:    "user-001",
		WebhookID: "wh-001",
		Payload:   map[string]any{"hello": "world"},
	})

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Empty(t, result.Error)

	assert.Equal(t, "Bearer hook-token-1", gotAuth)
	assert.Equal(t, "test", gotEnv)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"hello": "world"}, gotPayload)

	require.NotNil(t, logged)
	assert.True(t, logged.Success)
	assert.Equal(t, "webhook.test", logged.Event)
	assert.Equal(t, 200, logged.Response.Status)
	assert.Contains(t, logged.Response.Body, "received")

	r.webhooks.AssertExpectations(t)
}

func TestTestWebhook_Non2xxIsFailureWithOneLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	var logged *domain.WebhookLog
	r.webhooks.On("GetByID", ctx, "user-001", "wh-001").Return(activeWebhook(server.URL), nil)
	r.webhooks.On("InsertLog", ctx, mock.AnythingOfType("*domain.WebhookLog")).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*domain.WebhookLog)
	}).Return(nil).Once()

	result := svc.TestWebhook(ctx, WebhookTestRequest{UserID: "user-001", WebhookID: "wh-001"})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Contains(t, result.Error, "400")

	require.NotNil(t, logged)
	assert.False(t, logged.Success)
	assert.Equal(t, 400, logged.Response.Status)

	r.webhooks.AssertExpectations(t)
}

func TestTestWebhook_UnreachableURLStillLogsOnce(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	wh := activeWebhook("http://127.0.0.1:1/unreachable")
	var logged *domain.WebhookLog

	r.webhooks.On("GetByID", ctx, "user-001", "wh-001").Return(wh, nil)
	r.webhooks.On("InsertLog", ctx, mock.AnythingOfType("*domain.WebhookLog")).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*domain.WebhookLog)
	}).Return(nil).Once()

	result := svc.TestWebhook(ctx, WebhookTestRequest{UserID: "user-001", WebhookID: "wh-001"})

	assert.False(t, result.Success)
	assert.Zero(t, result.Status)
	assert.NotEmpty(t, result.Error)

	require.NotNil(t, logged)
	assert.False(t, logged.Success)
	assert.Nil(t, logged.Response)
	assert.NotEmpty(t, logged.Error)

	r.webhooks.AssertExpectations(t)
}

func TestTestWebhook_UnknownWebhookLogsConfigFailure(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	var logged *domain.WebhookLog
	r.webhooks.On("GetByID", ctx, "user-001", "missing").Return(nil, apperrors.ErrNotFound)
	r.webhooks.On("InsertLog", ctx, mock.AnythingOfType("*domain.WebhookLog")).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*domain.WebhookLog)
	}).Return(nil).Once()

	result := svc.TestWebhook(ctx, WebhookTestRequest{UserID: "user-001", WebhookID: "missing"})

	assert.False(t, result.Success)
	assert.Zero(t, result.Status)
	assert.Contains(t, result.Error, "load webhook")

	require.NotNil(t, logged)
	assert.False(t, logged.Success)

	r.webhooks.AssertExpectations(t)
}

func TestGetWebhookLogs_DefaultLimit(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	expected := []domain.WebhookLog{{ID: "log-1"}}
	r.webhooks.On("ListLogs", ctx, "wh-001", DefaultLogLimit).Return(expected, nil)

	logs, err := svc.GetWebhookLogs(ctx, "wh-001", 0)

	require.NoError(t, err)
	assert.Equal(t, expected, logs)
	r.webhooks.AssertExpectations(t)
}

func TestGetWebhooks_MissingUser(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)

	webhooks, err := svc.GetWebhooks(context.Background(), "")

	assert.Nil(t, webhooks)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
