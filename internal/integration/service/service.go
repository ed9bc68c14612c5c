package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/innospot/capability-hub/internal/integration/repository"
)

// DefaultWebhookTestTimeout bounds a single webhook test delivery.
const DefaultWebhookTestTimeout = 15 * time.Second

// DefaultLogLimit is the number of entries returned by log listings when the
// caller does not ask for a specific limit.
const DefaultLogLimit = 100

// HTTPDoer executes outbound HTTP requests. Both pkg/httpclient.Client and
// its circuit-broken wrapper satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds the tunables of the integration registry.
type Config struct {
	// WebhookTestTimeout bounds a webhook test delivery. Zero means
	// DefaultWebhookTestTimeout.
	WebhookTestTimeout time.Duration
}

// IntegrationService implements the integration registry: integrations, API
// keys, webhooks, enterprise connectors, patent office integrations and API
// analytics.
type IntegrationService struct {
	integrations repository.IntegrationRepository
	keys         repository.APIKeyRepository
	webhooks     repository.WebhookRepository
	connectors   repository.ConnectorRepository
	analytics    repository.AnalyticsRepository
	httpClient   HTTPDoer
	logger       *slog.Logger
	cfg          Config
}

// NewIntegrationService creates a new integration registry service.
func NewIntegrationService(
	integrations repository.IntegrationRepository,
	keys repository.APIKeyRepository,
	webhooks repository.WebhookRepository,
	connectors repository.ConnectorRepository,
	analytics repository.AnalyticsRepository,
	httpClient HTTPDoer,
	logger *slog.Logger,
	cfg Config,
) *IntegrationService {
	if cfg.WebhookTestTimeout <= 0 {
		cfg.WebhookTestTimeout = DefaultWebhookTestTimeout
	}
	return &IntegrationService{
		integrations: integrations,
		keys:         keys,
		webhooks:     webhooks,
		connectors:   connectors,
		analytics:    analytics,
		httpClient:   httpClient,
		logger:       logger,
		cfg:          cfg,
	}
}

// secretPrefix marks InnoSpot-issued API key secrets.
const secretPrefix = "isk"

// generateSecret builds an API key secret of the form isk_<base36>_<base36>
// from a cryptographically strong random source.
func generateSecret() (string, error) {
	first, err := randomBase36(10)
	if err != nil {
		return "", err
	}
	second, err := randomBase36(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", secretPrefix, first, second), nil
}

// randomBase36 encodes n random bytes as a base36 string.
func randomBase36(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return new(big.Int).SetBytes(buf).Text(36), nil
}
