package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/innospot/capability-hub/internal/integration/domain"
	"github.com/innospot/capability-hub/internal/integration/repository"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

const integrationColumns = `id, user_id, name, description, version, category, status,
	provider, icon_url, documentation_url, support_url, last_used, created_at, updated_at`

// IntegrationRepository implements repository.IntegrationRepository using
// PostgreSQL.
type IntegrationRepository struct {
	pool database.DBTX
}

// NewIntegrationRepository creates a new PostgreSQL-backed integration
// repository.
func NewIntegrationRepository(pool database.DBTX) *IntegrationRepository {
	return &IntegrationRepository{pool: pool}
}

// Create inserts a new integration.
func (r *IntegrationRepository) Create(ctx context.Context, in *domain.Integration) error {
	query := `
		INSERT INTO integrations (id, user_id, name, description, version, category, status,
			provider, icon_url, documentation_url, support_url, last_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		in.ID, in.UserID, in.Name, in.Description, in.Version, in.Category,
		in.Status, in.Provider, in.IconURL, in.DocumentationURL, in.SupportURL,
		in.LastUsed, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert integration: %w", err)
	}

	return nil
}

// GetByID retrieves one of the user's integrations.
func (r *IntegrationRepository) GetByID(ctx context.Context, userID, id string) (*domain.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1 AND user_id = $2`

	in, err := scanIntegration(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("integration", id)
		}
		return nil, fmt.Errorf("scan integration: %w", err)
	}

	return in, nil
}

// List returns the user's integrations matching the filter, newest first.
func (r *IntegrationRepository) List(ctx context.Context, userID string, filter repository.IntegrationFilter) ([]domain.Integration, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argIndex := 2

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM integrations
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		integrationColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, filter.Params.PerPage, filter.Params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	integrations := make([]domain.Integration, 0)
	totalCount := 0
	for rows.Next() {
		var (
			in    domain.Integration
			total int
		)
		err := rows.Scan(
			&in.ID, &in.UserID, &in.Name, &in.Description, &in.Version,
			&in.Category, &in.Status, &in.Provider, &in.IconURL,
			&in.DocumentationURL, &in.SupportURL, &in.LastUsed,
			&in.CreatedAt, &in.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan integration row: %w", err)
		}
		integrations = append(integrations, in)
		totalCount = total
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate integration rows: %w", err)
	}

	return integrations, totalCount, nil
}

// Update writes the mutable fields of an integration.
func (r *IntegrationRepository) Update(ctx context.Context, in *domain.Integration) error {
	query := `
		UPDATE integrations
		SET name = $1, description = $2, version = $3, category = $4, status = $5,
			provider = $6, icon_url = $7, documentation_url = $8, support_url = $9,
			last_used = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13`

	ct, err := r.pool.Exec(ctx, query,
		in.Name, in.Description, in.Version, in.Category, in.Status,
		in.Provider, in.IconURL, in.DocumentationURL, in.SupportURL,
		in.LastUsed, in.UpdatedAt, in.ID, in.UserID,
	)
	if err != nil {
		return fmt.Errorf("update integration: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("integration", in.ID)
	}

	return nil
}

// Delete removes an integration permanently.
func (r *IntegrationRepository) Delete(ctx context.Context, userID, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM integrations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("integration", id)
	}

	return nil
}

// ListMarketplace returns the active marketplace catalogue, optionally
// narrowed by a case-insensitive search over name and description.
func (r *IntegrationRepository) ListMarketplace(ctx context.Context, query string) ([]domain.Integration, error) {
	conditions := []string{"category = $1", "status = $2"}
	args := []any{domain.CategoryAPIMarketplace, domain.StatusActive}

	if query != "" {
		conditions = append(conditions, "(name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')")
		args = append(args, escapeLike(query))
	}

	sql := fmt.Sprintf(`SELECT %s FROM integrations WHERE %s ORDER BY name ASC`,
		integrationColumns, strings.Join(conditions, " AND "))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list marketplace integrations: %w", err)
	}
	defer rows.Close()

	integrations := make([]domain.Integration, 0)
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan marketplace row: %w", err)
		}
		integrations = append(integrations, *in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marketplace rows: %w", err)
	}

	return integrations, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func scanIntegration(row pgx.Row) (*domain.Integration, error) {
	var in domain.Integration
	err := row.Scan(
		&in.ID, &in.UserID, &in.Name, &in.Description, &in.Version,
		&in.Category, &in.Status, &in.Provider, &in.IconURL,
		&in.DocumentationURL, &in.SupportURL, &in.LastUsed,
		&in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}
