package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/internal/integration/repository"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
	"github.com/innospot/capability-hub/pkg/pagination"
	"github.com/innospot/capability-hub/pkg/validator"
)

// CreateIntegrationInput holds the parameters for registering an integration.
type CreateIntegrationInput struct {
	Name             string `json:"name" validate:"required,max=200"`
	Description      string `json:"description"`
	Version          string `json:"version"`
	Category         string `json:"category" validate:"required"`
	Provider         string `json:"provider"`
	IconURL          string `json:"icon_url" validate:"omitempty,url"`
	DocumentationURL string `json:"documentation_url" validate:"omitempty,url"`
	SupportURL       string `json:"support_url" validate:"omitempty,url"`
}

// CreateIntegration registers a new integration in pending status.
func (s *IntegrationService) CreateIntegration(ctx context.Context, userID string, input CreateIntegrationInput) (*domain.Integration, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", input.Category))
	}

	now := time.Now().UTC()
	in := &domain.Integration{
		ID:               uuid.New().String(),
		UserID:           userID,
		Name:             input.Name,
		Description:      input.Description,
		Version:          input.Version,
		Category:         input.Category,
		Status:           domain.StatusPending,
		Provider:         input.Provider,
		IconURL:          input.IconURL,
		DocumentationURL: input.DocumentationURL,
		SupportURL:       input.SupportURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.integrations.Create(ctx, in); err != nil {
		s.recordError(ctx, in.ID, "create_integration", err)
		return nil, fmt.Errorf("create integration: %w", err)
	}

	s.logger.InfoContext(ctx, "integration created",
		slog.String("integration_id", in.ID),
		slog.String("category", in.Category),
	)

	return in, nil
}

// GetIntegration returns one of the user's integrations.
func (s *IntegrationService) GetIntegration(ctx context.Context, userID, id string) (*domain.Integration, error) {
	return s.integrations.GetByID(ctx, userID, id)
}

// ListIntegrations returns a page of the user's integrations, optionally
// narrowed by category or status.
func (s *IntegrationService) ListIntegrations(ctx context.Context, userID string, filter repository.IntegrationFilter) (*pagination.Result[domain.Integration], error) {
	if filter.Params.Page < 1 {
		filter.Params = pagination.DefaultParams()
	}
	if filter.Category != nil && !domain.IsValidCategory(*filter.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", *filter.Category))
	}

	integrations, total, err := s.integrations.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}

	result := pagination.NewResult(integrations, total, filter.Params)
	return &result, nil
}

// UpdateIntegrationInput holds the mutable fields of an integration. Nil
// fields are left unchanged.
type UpdateIntegrationInput struct {
	Name             *string `json:"name" validate:"omitempty,max=200"`
	Description      *string `json:"description"`
	Version          *string `json:"version"`
	Status           *string `json:"status"`
	Provider         *string `json:"provider"`
	IconURL          *string `json:"icon_url" validate:"omitempty,url"`
	DocumentationURL *string `json:"documentation_url" validate:"omitempty,url"`
	SupportURL       *string `json:"support_url" validate:"omitempty,url"`
}

// UpdateIntegration applies a partial update to one of the user's
// integrations and stamps updated_at.
func (s *IntegrationService) UpdateIntegration(ctx context.Context, userID, id string, input UpdateIntegrationInput) (*domain.Integration, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if input.Status != nil && !domain.IsValidStatus(*input.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *input.Status))
	}

	in, err := s.integrations.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		in.Name = *input.Name
	}
	if input.Description != nil {
		in.Description = *input.Description
	}
	if input.Version != nil {
		in.Version = *input.Version
	}
	if input.Status != nil {
		in.Status = *input.Status
	}
	if input.Provider != nil {
		in.Provider = *input.Provider
	}
	if input.IconURL != nil {
		in.IconURL = *input.IconURL
	}
	if input.DocumentationURL != nil {
		in.DocumentationURL = *input.DocumentationURL
	}
	if input.SupportURL != nil {
		in.SupportURL = *input.SupportURL
	}
	in.UpdatedAt = time.Now().UTC()

	if err := s.integrations.Update(ctx, in); err != nil {
		s.recordError(ctx, id, "update_integration", err)
		return nil, fmt.Errorf("update integration: %w", err)
	}

	return in, nil
}

// DeleteIntegration removes one of the user's integrations permanently.
func (s *IntegrationService) DeleteIntegration(ctx context.Context, userID, id string) error {
	if err := s.integrations.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "integration deleted",
		slog.String("integration_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// GetMarketplaceAPIs returns the active marketplace catalogue.
func (s *IntegrationService) GetMarketplaceAPIs(ctx context.Context) ([]domain.Integration, error) {
	return s.integrations.ListMarketplace(ctx, "")
}

// SearchMarketplaceAPIs returns the active marketplace entries whose name or
// description matches the query, case-insensitively.
func (s *IntegrationService) SearchMarketplaceAPIs(ctx context.Context, query string) ([]domain.Integration, error) {
	return s.integrations.ListMarketplace(ctx, query)
}

// MarketplaceOverview pairs the catalogue with the user's issued keys.
type MarketplaceOverview struct {
	APIs    []domain.Integration `json:"apis"`
	APIKeys []domain.APIKey      `json:"api_keys"`
}

// GetMarketplaceOverview fetches the catalogue and the user's API keys in
// parallel. Either fetch failing fails the overview.
func (s *IntegrationService) GetMarketplaceOverview(ctx context.Context, userID string) (*MarketplaceOverview, error) {
	var (
		wg      sync.WaitGroup
		apis    []domain.Integration
		keys    []domain.APIKey
		apiErr  error
		keysErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		apis, apiErr = s.integrations.ListMarketplace(ctx, "")
	}()
	go func() {
		defer wg.Done()
		keys, keysErr = s.keys.ListByUser(ctx, userID)
	}()
	wg.Wait()

	if apiErr != nil {
		return nil, fmt.Errorf("load marketplace catalogue: %w", apiErr)
	}
	if keysErr != nil {
		return nil, fmt.Errorf("load api keys: %w", keysErr)
	}

	return &MarketplaceOverview{APIs: apis, APIKeys: keys}, nil
}

// LogIntegrationError persists an error audit entry.
func (s *IntegrationService) LogIntegrationError(ctx context.Context, integrationID, operation, message string, details map[string]any) error {
	entry := &domain.IntegrationError{
		ID:            uuid.New().String(),
		IntegrationID: integrationID,
		Operation:     operation,
		Message:       message,
		Details:       details,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.analytics.InsertError(ctx, entry); err != nil {
		return fmt.Errorf("log integration error: %w", err)
	}

	return nil
}

// GetIntegrationErrors returns the most recent error audit entries of an
// integration.
func (s *IntegrationService) GetIntegrationErrors(ctx context.Context, integrationID string, limit int) ([]domain.IntegrationError, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.analytics.ListErrors(ctx, integrationID, limit)
}

// recordError best-effort appends a failed operation to the audit log. The
// original failure is what the caller sees; audit failures are only logged.
func (s *IntegrationService) recordError(ctx context.Context, integrationID, operation string, cause error) {
	entry := &domain.IntegrationError{
		ID:            uuid.New().String(),
		IntegrationID: integrationID,
		Operation:     operation,
		Message:       cause.Error(),
		Timestamp:     time.Now().UTC(),
	}

	if err := s.analytics.InsertError(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to record integration error",
			slog.String("integration_id", integrationID),
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}
}
