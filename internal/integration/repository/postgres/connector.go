package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

// ConnectorRepository implements repository.ConnectorRepository using
// PostgreSQL.
type ConnectorRepository struct {
	pool database.DBTX
}

// NewConnectorRepository creates a new PostgreSQL-backed connector repository.
func NewConnectorRepository(pool database.DBTX) *ConnectorRepository {
	return &ConnectorRepository{pool: pool}
}

// CreateEnterprise inserts a new enterprise connector.
func (r *ConnectorRepository) CreateEnterprise(ctx context.Context, c *domain.EnterpriseConnector) error {
	configJSON, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal connector config: %w", err)
	}

	query := `
		INSERT INTO enterprise_connectors (id, user_id, name, system_type, config,
			status, last_sync, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.SystemType, configJSON,
		c.Status, c.LastSync, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert enterprise connector: %w", err)
	}

	return nil
}

// GetEnterprise retrieves one of the user's enterprise connectors.
func (r *ConnectorRepository) GetEnterprise(ctx context.Context, userID, id string) (*domain.EnterpriseConnector, error) {
	query := `
		SELECT id, user_id, name, system_type, config, status, last_sync, created_at, updated_at
		FROM enterprise_connectors
		WHERE id = $1 AND user_id = $2`

	var (
		c          domain.EnterpriseConnector
		configJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.SystemType, &configJSON,
		&c.Status, &c.LastSync, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("enterprise connector", id)
		}
		return nil, fmt.Errorf("scan enterprise connector: %w", err)
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &c.Config); err != nil {
			return nil, fmt.Errorf("unmarshal connector config: %w", err)
		}
	}

	return &c, nil
}

// StampEnterpriseSync records the outcome of a connection test or sync.
func (r *ConnectorRepository) StampEnterpriseSync(ctx context.Context, id, status string, at time.Time) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE enterprise_connectors SET status = $1, last_sync = $2, updated_at = $2 WHERE id = $3`,
		status, at, id,
	)
	if err != nil {
		return fmt.Errorf("stamp enterprise sync: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("enterprise connector", id)
	}

	return nil
}

// CreatePatentOffice inserts a new patent office integration.
func (r *ConnectorRepository) CreatePatentOffice(ctx context.Context, p *domain.PatentOfficeIntegration) error {
	query := `
		INSERT INTO patent_office_integrations (id, user_id, office_code, api_endpoint,
			status, last_sync, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.OfficeCode, p.APIEndpoint,
		p.Status, p.LastSync, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patent office integration: %w", err)
	}

	return nil
}

// GetPatentOffice retrieves one of the user's patent office integrations.
func (r *ConnectorRepository) GetPatentOffice(ctx context.Context, userID, id string) (*domain.PatentOfficeIntegration, error) {
	query := `
		SELECT id, user_id, office_code, api_endpoint, status, last_sync, created_at, updated_at
		FROM patent_office_integrations
		WHERE id = $1 AND user_id = $2`

	var p domain.PatentOfficeIntegration
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&p.ID, &p.UserID, &p.OfficeCode, &p.APIEndpoint,
		&p.Status, &p.LastSync, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("patent office integration", id)
		}
		return nil, fmt.Errorf("scan patent office integration: %w", err)
	}

	return &p, nil
}

// StampPatentOfficeSync records a completed status synchronization.
func (r *ConnectorRepository) StampPatentOfficeSync(ctx context.Context, id, status string, at time.Time) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE patent_office_integrations SET status = $1, last_sync = $2, updated_at = $2 WHERE id = $3`,
		status, at, id,
	)
	if err != nil {
		return fmt.Errorf("stamp patent office sync: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("patent office integration", id)
	}

	return nil
}
