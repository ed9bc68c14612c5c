package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
	"github.com/innospot/capability-hub/pkg/validator"
)

// CreateAPIKeyInput holds the parameters for issuing an API key.
type CreateAPIKeyInput struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Permissions []string   `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CreateAPIKey issues a new key against an integration. The returned record
// carries the plaintext secret; creation is the only call that hands it out.
func (s *IntegrationService) CreateAPIKey(ctx context.Context, userID, integrationID string, input CreateAPIKeyInput) (*domain.APIKey, error) {
	if userID == "" || integrationID == "" {
		return nil, apperrors.InvalidInput("user_id and integration_id are required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate api key secret: %w", err)
	}

	permissions := input.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	key := &domain.APIKey{
		ID:            uuid.New().String(),
		UserID:        userID,
		IntegrationID: integrationID,
		Name:          input.Name,
		Secret:        secret,
		Permissions:   permissions,
		IsActive:      true,
		ExpiresAt:     input.ExpiresAt,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.keys.Create(ctx, key); err != nil {
		s.recordError(ctx, integrationID, "create_api_key", err)
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.logger.InfoContext(ctx, "api key created",
		slog.String("key_id", key.ID),
		slog.String("integration_id", integrationID),
	)

	return key, nil
}

// GetAPIKeys returns all of the user's keys, newest first.
func (s *IntegrationService) GetAPIKeys(ctx context.Context, userID string) ([]domain.APIKey, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	return s.keys.ListByUser(ctx, userID)
}

// RevokeAPIKey deactivates a key. The record is retained; subsequent reads
// derive the revoked status from the flag.
func (s *IntegrationService) RevokeAPIKey(ctx context.Context, userID, keyID string) error {
	if userID == "" || keyID == "" {
		return apperrors.InvalidInput("user_id and key_id are required")
	}

	if err := s.keys.Revoke(ctx, userID, keyID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "api key revoked",
		slog.String("key_id", keyID),
		slog.String("user_id", userID),
	)

	return nil
}
