package domain

import "time"

// Webhook authentication types.
const (
	WebhookAuthNone      = "none"
	WebhookAuthSecret    = "secret"
	WebhookAuthSignature = "signature"
	WebhookAuthBearer    = "bearer_token"
)

// WebhookAuth describes how outgoing webhook deliveries authenticate
// themselves against the receiver.
type WebhookAuth struct {
	Type       string `json:"type"`
	Secret     string `json:"secret,omitempty"`
	Algorithm  string `json:"algorithm,omitempty"`
	HeaderName string `json:"header_name,omitempty"`
}

// Webhook is a registered outgoing webhook endpoint with its event
// subscriptions and delivery configuration.
type Webhook struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Events    []string          `json:"events"`
	Headers   map[string]string `json:"headers,omitempty"`
	Auth      WebhookAuth       `json:"auth"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// WebhookResponse captures what the receiver answered to a delivery attempt.
type WebhookResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// WebhookLog is the audit record of a single delivery attempt. Every test
// run writes exactly one log entry, whether the delivery succeeded or not.
type WebhookLog struct {
	ID               string           `json:"id"`
	WebhookID        string           `json:"webhook_id"`
	Event            string           `json:"event"`
	Payload          map[string]any   `json:"payload,omitempty"`
	Response         *WebhookResponse `json:"response,omitempty"`
	Attempt          int              `json:"attempt"`
	Success          bool             `json:"success"`
	Error            string           `json:"error,omitempty"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
	Timestamp        time.Time        `json:"timestamp"`
}

// ValidWebhookAuthTypes returns the valid webhook auth types.
func ValidWebhookAuthTypes() []string {
	return []string{WebhookAuthNone, WebhookAuthSecret, WebhookAuthSignature, WebhookAuthBearer}
}
