package repository

import (
	"context"
	"time"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/pagination"
)

// IntegrationFilter narrows integration listings. A nil Category matches all.
type IntegrationFilter struct {
	Category *string
	Status   *string
	Params   pagination.Params
}

// IntegrationRepository defines the persistence operations for integrations
// and the marketplace catalogue.
type IntegrationRepository interface {
	// Create inserts a new integration.
	Create(ctx context.Context, integration *domain.Integration) error

	// GetByID retrieves one of the user's integrations.
	GetByID(ctx context.Context, userID, id string) (*domain.Integration, error)

	// List returns the user's integrations matching the filter, newest
	// first, with the total count before pagination.
	List(ctx context.Context, userID string, filter IntegrationFilter) ([]domain.Integration, int, error)

	// Update writes the mutable fields of an integration.
	Update(ctx context.Context, integration *domain.Integration) error

	// Delete removes an integration permanently.
	Delete(ctx context.Context, userID, id string) error

	// ListMarketplace returns the active marketplace catalogue, optionally
	// narrowed by a case-insensitive search over name and description.
	ListMarketplace(ctx context.Context, query string) ([]domain.Integration, error)
}

// APIKeyRepository defines the persistence operations for API keys.
type APIKeyRepository interface {
	// Create inserts a new API key.
	Create(ctx context.Context, key *domain.APIKey) error

	// ListByUser returns all of the user's keys, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error)

	// Revoke deactivates a key. The record is retained.
	Revoke(ctx context.Context, userID, keyID string) error
}

// WebhookRepository defines the persistence operations for webhooks and
// their delivery logs.
type WebhookRepository interface {
	// Create inserts a new webhook.
	Create(ctx context.Context, webhook *domain.Webhook) error

	// GetByID retrieves one of the user's webhooks.
	GetByID(ctx context.Context, userID, id string) (*domain.Webhook, error)

	// ListByUser returns all of the user's webhooks, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Webhook, error)

	// InsertLog appends a delivery log entry.
	InsertLog(ctx context.Context, log *domain.WebhookLog) error

	// ListLogs returns the most recent delivery logs of a webhook.
	ListLogs(ctx context.Context, webhookID string, limit int) ([]domain.WebhookLog, error)
}

// ConnectorRepository defines the persistence operations for enterprise
// connectors and patent office integrations.
type ConnectorRepository interface {
	// CreateEnterprise inserts a new enterprise connector.
	CreateEnterprise(ctx context.Context, connector *domain.EnterpriseConnector) error

	// GetEnterprise retrieves one of the user's enterprise connectors.
	GetEnterprise(ctx context.Context, userID, id string) (*domain.EnterpriseConnector, error)

	// StampEnterpriseSync records the outcome of a connection test or sync.
	StampEnterpriseSync(ctx context.Context, id, status string, at time.Time) error

	// CreatePatentOffice inserts a new patent office integration.
	CreatePatentOffice(ctx context.Context, integration *domain.PatentOfficeIntegration) error

	// GetPatentOffice retrieves one of the user's patent office integrations.
	GetPatentOffice(ctx context.Context, userID, id string) (*domain.PatentOfficeIntegration, error)

	// StampPatentOfficeSync records a completed status synchronization.
	StampPatentOfficeSync(ctx context.Context, id, status string, at time.Time) error
}

// AnalyticsRepository defines read access to raw API usage samples and the
// integration error audit log.
type AnalyticsRepository interface {
	// FetchRows returns the usage samples of an API since the given instant,
	// in chronological order.
	FetchRows(ctx context.Context, apiID string, since time.Time) ([]domain.AnalyticsRow, error)

	// InsertError appends an integration error audit entry.
	InsertError(ctx context.Context, entry *domain.IntegrationError) error

	// ListErrors returns the most recent error entries of an integration.
	ListErrors(ctx context.Context, integrationID string, limit int) ([]domain.IntegrationError, error)
}
