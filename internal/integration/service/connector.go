package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
	"github.com/innospot/capability-hub/pkg/validator"
)

// CreateEnterpriseConnectorInput holds the parameters for registering an
// enterprise connector.
type CreateEnterpriseConnectorInput struct {
	Name       string         `json:"name" validate:"required,max=200"`
	SystemType string         `json:"system_type" validate:"required"`
	Config     map[string]any `json:"config"`
}

// CreateEnterpriseConnector registers a new enterprise connector in pending
// status.
func (s *IntegrationService) CreateEnterpriseConnector(ctx context.Context, userID string, input CreateEnterpriseConnectorInput) (*domain.EnterpriseConnector, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now().UTC()
	c := &domain.EnterpriseConnector{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       input.Name,
		SystemType: input.SystemType,
		Config:     input.Config,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.connectors.CreateEnterprise(ctx, c); err != nil {
		return nil, fmt.Errorf("create enterprise connector: %w", err)
	}

	s.logger.InfoContext(ctx, "enterprise connector created",
		slog.String("connector_id", c.ID),
		slog.String("system_type", c.SystemType),
	)

	return c, nil
}

// ConnectionTestResult reports a connector health probe.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}

// TestEnterpriseConnection probes the connector's configured base URL and
// stamps the sync state with the outcome. A missing or unreachable endpoint
// marks the connector as errored.
func (s *IntegrationService) TestEnterpriseConnection(ctx context.Context, userID, connectorID string) (*ConnectionTestResult, error) {
	c, err := s.connectors.GetEnterprise(ctx, userID, connectorID)
	if err != nil {
		return nil, err
	}

	baseURL, _ := c.Config["base_url"].(string)
	if baseURL == "" {
		return nil, apperrors.InvalidInput("connector config has no base_url")
	}

	result := &ConnectionTestResult{}
	status := domain.StatusError

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, http.NoBody)
	if err != nil {
		result.Error = fmt.Sprintf("build probe request: %v", err)
	} else if resp, err := s.httpClient.Do(ctx, req); err != nil {
		result.Error = err.Error()
	} else {
		resp.Body.Close()
		result.Status = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result.Success = true
			status = domain.StatusActive
		} else {
			result.Error = fmt.Sprintf("probe returned status %d", resp.StatusCode)
		}
	}

	if err := s.connectors.StampEnterpriseSync(ctx, connectorID, status, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp connector sync state",
			slog.String("connector_id", connectorID),
			slog.String("error", err.Error()),
		)
	}

	if !result.Success {
		s.recordError(ctx, connectorID, "test_connection", fmt.Errorf("%s", result.Error))
	}

	return result, nil
}

// CreatePatentOfficeInput holds the parameters for registering a patent
// office integration.
type CreatePatentOfficeInput struct {
	OfficeCode  string `json:"office_code" validate:"required,max=10"`
	APIEndpoint string `json:"api_endpoint" validate:"required,url"`
}

// CreatePatentOfficeIntegration registers a new patent office connection in
// pending status.
func (s *IntegrationService) CreatePatentOfficeIntegration(ctx context.Context, userID string, input CreatePatentOfficeInput) (*domain.PatentOfficeIntegration, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now().UTC()
	p := &domain.PatentOfficeIntegration{
		ID:          uuid.New().String(),
		UserID:      userID,
		OfficeCode:  input.OfficeCode,
		APIEndpoint: input.APIEndpoint,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.connectors.CreatePatentOffice(ctx, p); err != nil {
		return nil, fmt.Errorf("create patent office integration: %w", err)
	}

	s.logger.InfoContext(ctx, "patent office integration created",
		slog.String("integration_id", p.ID),
		slog.String("office_code", p.OfficeCode),
	)

	return p, nil
}

// SyncPatentStatus runs a status synchronization against the office endpoint
// and stamps last_sync. The probe is a reachability check; pulling actual
// dossier data is office-specific and layered on top by callers.
func (s *IntegrationService) SyncPatentStatus(ctx context.Context, userID, integrationID string) (*domain.PatentOfficeIntegration, error) {
	p, err := s.connectors.GetPatentOffice(ctx, userID, integrationID)
	if err != nil {
		return nil, err
	}

	status := domain.StatusActive
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.APIEndpoint, http.NoBody)
	if err != nil {
		status = domain.StatusError
	} else if resp, err := s.httpClient.Do(ctx, req); err != nil {
		status = domain.StatusError
		s.recordError(ctx, integrationID, "sync_patent_status", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			status = domain.StatusError
			s.recordError(ctx, integrationID, "sync_patent_status",
				fmt.Errorf("office endpoint returned status %d", resp.StatusCode))
		}
	}

	now := time.Now().UTC()
	if err := s.connectors.StampPatentOfficeSync(ctx, integrationID, status, now); err != nil {
		return nil, fmt.Errorf("stamp patent office sync: %w", err)
	}

	p.Status = status
	p.LastSync = &now
	p.UpdatedAt = now

	s.logger.InfoContext(ctx, "patent office sync completed",
		slog.String("integration_id", integrationID),
		slog.String("office_code", p.OfficeCode),
		slog.String("status", status),
	)

	return p, nil
}
