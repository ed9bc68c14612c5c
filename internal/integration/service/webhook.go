package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
	"github.com/innospot/capability-hub/pkg/validator"
)

// maxLoggedBodyBytes caps the response body stored in a webhook log entry.
const maxLoggedBodyBytes = 4096

// CreateWebhookInput holds the parameters for registering a webhook.
type CreateWebhookInput struct {
	Name    string             `json:"name" validate:"required,max=200"`
	URL     string             `json:"url" validate:"required,url"`
	Events  []string           `json:"events" validate:"required,min=1"`
	Headers map[string]string  `json:"headers"`
	Auth    domain.WebhookAuth `json:"auth"`
}

// CreateWebhook registers a new active webhook.
func (s *IntegrationService) CreateWebhook(ctx context.Context, userID string, input CreateWebhookInput) (*domain.Webhook, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if input.Auth.Type == "" {
		input.Auth.Type = domain.WebhookAuthNone
	}
	if !validWebhookAuthType(input.Auth.Type) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid webhook auth type %q", input.Auth.Type))
	}

	now := time.Now().UTC()
	wh := &domain.Webhook{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      input.Name,
		URL:       input.URL,
		Events:    input.Events,
		Headers:   input.Headers,
		Auth:      input.Auth,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.webhooks.Create(ctx, wh); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}

	s.logger.InfoContext(ctx, "webhook created",
		slog.String("webhook_id", wh.ID),
		slog.String("url", wh.URL),
	)

	return wh, nil
}

// GetWebhooks returns all of the user's webhooks, newest first.
func (s *IntegrationService) GetWebhooks(ctx context.Context, userID string) ([]domain.Webhook, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	return s.webhooks.ListByUser(ctx, userID)
}

// GetWebhookLogs returns the most recent delivery logs of a webhook.
func (s *IntegrationService) GetWebhookLogs(ctx context.Context, webhookID string, limit int) ([]domain.WebhookLog, error) {
	if webhookID == "" {
		return nil, apperrors.InvalidInput("webhook_id is required")
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.webhooks.ListLogs(ctx, webhookID, limit)
}

// WebhookTestRequest identifies the webhook to test and the payload to send.
// A nil payload sends a minimal test envelope.
type WebhookTestRequest struct {
	UserID    string
	WebhookID string
	Event     string
	Payload   map[string]any
}

// WebhookTestResult reports a test delivery. Delivery failures are data, not
// errors: Success is false and Error names the cause.
type WebhookTestResult struct {
	Success          bool   `json:"success"`
	Status           int    `json:"status"`
	Error            string `json:"error,omitempty"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	LogID            string `json:"log_id"`
}

// TestWebhook delivers a test payload to the configured endpoint, bounded by
// the configured timeout. It never returns an error: configuration problems,
// network failures and non-2xx responses all come back as an unsuccessful
// result. Every run writes exactly one delivery log entry.
func (s *IntegrationService) TestWebhook(ctx context.Context, req WebhookTestRequest) *WebhookTestResult {
	event := req.Event
	if event == "" {
		event = "webhook.test"
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{"test": true, "timestamp": time.Now().UTC().Format(time.RFC3339)}
	}

	entry := &domain.WebhookLog{
		ID:        uuid.New().String(),
		WebhookID: req.WebhookID,
		Event:     event,
		Payload:   payload,
		Attempt:   1,
		Timestamp: time.Now().UTC(),
	}

	wh, err := s.webhooks.GetByID(ctx, req.UserID, req.WebhookID)
	if err != nil {
		entry.Error = fmt.Sprintf("load webhook: %v", err)
		return s.finishTest(ctx, entry, 0)
	}

	start := time.Now()
	resp, err := s.deliver(ctx, wh, payload)
	entry.ProcessingTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		entry.Error = err.Error()
		return s.finishTest(ctx, entry, 0)
	}

	entry.Response = resp
	if resp.Status >= 200 && resp.Status < 300 {
		entry.Success = true
	} else {
		entry.Error = fmt.Sprintf("delivery failed with status %d", resp.Status)
	}

	return s.finishTest(ctx, entry, resp.Status)
}

// deliver POSTs the payload with the webhook's headers and auth applied.
func (s *IntegrationService) deliver(ctx context.Context, wh *domain.Webhook, payload map[string]any) (*domain.WebhookResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.WebhookTestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for name, value := range wh.Headers {
		httpReq.Header.Set(name, value)
	}
	applyWebhookAuth(httpReq, wh.Auth)

	httpResp, err := s.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxLoggedBodyBytes))
	if err != nil {
		respBody = nil
	}

	headers := make(map[string]string, len(httpResp.Header))
	for name := range httpResp.Header {
		headers[name] = httpResp.Header.Get(name)
	}

	return &domain.WebhookResponse{
		Status:  httpResp.StatusCode,
		Body:    string(respBody),
		Headers: headers,
	}, nil
}

// finishTest persists the log entry and builds the result. The log write is
// best-effort; its failure never turns the test into an error.
func (s *IntegrationService) finishTest(ctx context.Context, entry *domain.WebhookLog, status int) *WebhookTestResult {
	if err := s.webhooks.InsertLog(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist webhook test log",
			slog.String("webhook_id", entry.WebhookID),
			slog.String("error", err.Error()),
		)
	}

	if !entry.Success {
		s.logger.WarnContext(ctx, "webhook test failed",
			slog.String("webhook_id", entry.WebhookID),
			slog.Int("status", status),
			slog.String("error", entry.Error),
		)
	}

	return &WebhookTestResult{
		Success:          entry.Success,
		Status:           status,
		Error:            entry.Error,
		ProcessingTimeMS: entry.ProcessingTimeMS,
		LogID:            entry.ID,
	}
}

// applyWebhookAuth sets the authentication headers for a delivery.
func applyWebhookAuth(req *http.Request, auth domain.WebhookAuth) {
	switch auth.Type {
	case domain.WebhookAuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Secret)
	case domain.WebhookAuthSecret:
		header := auth.HeaderName
		if header == "" {
			header = "X-Webhook-Secret"
		}
		req.Header.Set(header, auth.Secret)
	case domain.WebhookAuthSignature:
		// Signature auth signs the payload at delivery time; the test run
		// advertises the algorithm so receivers can verify wiring.
		req.Header.Set("X-Signature-Algorithm", auth.Algorithm)
	}
}

func validWebhookAuthType(t string) bool {
	for _, v := range domain.ValidWebhookAuthTypes() {
		if v == t {
			return true
		}
	}
	return false
}
