package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/innospot/capability-hub/internal/review/domain"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

// reviewColumns is the select list shared by every review query.
const reviewColumns = `id, capability_id, capability_name, user_id, user_email, user_name,
	organization, role, rating, title, body, pros, cons, usage_frequency,
	recommend_to_others, helpful, not_helpful, status, verification_status,
	verification_token, is_verified_purchase, email_sent_at, verified_at,
	published_at, moderator_notes, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	query := `
		INSERT INTO reviews (id, capability_id, capability_name, user_id, user_email, user_name,
			organization, role, rating, title, body, pros, cons, usage_frequency,
			recommend_to_others, helpful, not_helpful, status, verification_status,
			verification_token, is_verified_purchase, email_sent_at, verified_at,
			published_at, moderator_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`

	_, err := r.pool.Exec(ctx, query,
		rev.ID,
		rev.CapabilityID,
		rev.CapabilityName,
		nullIfEmpty(rev.UserID),
		rev.UserEmail,
		rev.UserName,
		rev.Organization,
		rev.Role,
		rev.Rating,
		rev.Title,
		rev.Body,
		rev.Pros,
		rev.Cons,
		nullIfEmpty(rev.UsageFrequency),
		rev.RecommendToOthers,
		rev.Helpful,
		rev.NotHelpful,
		rev.Status,
		rev.VerificationStatus,
		nullIfEmpty(rev.VerificationToken),
		rev.IsVerifiedPurchase,
		rev.EmailSentAt,
		rev.VerifiedAt,
		rev.PublishedAt,
		rev.ModeratorNotes,
		rev.CreatedAt,
		rev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rev, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return rev, nil
}

// Update writes the mutable workflow fields of a review. Helpfulness counters
// are deliberately not part of the statement; see RecordVote.
func (r *ReviewRepository) Update(ctx context.Context, rev *domain.Review) error {
	query := `
		UPDATE reviews
		SET status = $1, verification_status = $2, verification_token = $3,
			verified_at = $4, published_at = $5, moderator_notes = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.pool.Exec(ctx, query,
		rev.Status,
		rev.VerificationStatus,
		nullIfEmpty(rev.VerificationToken),
		rev.VerifiedAt,
		rev.PublishedAt,
		rev.ModeratorNotes,
		rev.UpdatedAt,
		rev.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rev.ID)
	}

	return nil
}

// MarkEmailSent stamps the verification-email dispatch time. Only reviews
// still awaiting verification are touched.
func (r *ReviewRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE reviews
		SET verification_status = $1, email_sent_at = $2, updated_at = $2
		WHERE id = $3 AND verification_status = $4`

	if _, err := r.pool.Exec(ctx, query, domain.VerificationEmailSent, at, id, domain.VerificationUnverified); err != nil {
		return fmt.Errorf("mark verification email sent: %w", err)
	}

	return nil
}

// ListPublished returns the published reviews of a capability matching the
// given filter. Filtering and ordering are pushed into SQL.
func (r *ReviewRepository) ListPublished(ctx context.Context, capabilityID string, filter domain.Filter) ([]domain.Review, error) {
	conditions := []string{"capability_id = $1", "status = $2"}
	args := []any{capabilityID, domain.StatusPublished}
	argIndex := 3

	if len(filter.Ratings) > 0 {
		conditions = append(conditions, fmt.Sprintf("rating = ANY($%d)", argIndex))
		args = append(args, filter.Ratings)
		argIndex++
	}

	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("is_verified_purchase = $%d", argIndex))
		args = append(args, *filter.Verified)
		argIndex++
	}

	if filter.SearchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR body ILIKE '%%' || $%d || '%%')", argIndex, argIndex))
		args = append(args, escapeLike(filter.SearchTerm))
		argIndex++
	}

	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.CreatedAfter)
		argIndex++
	}

	if filter.CreatedUntil != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.CreatedUntil)
		argIndex++
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE %s ORDER BY %s`,
		reviewColumns,
		strings.Join(conditions, " AND "),
		sortClause(filter.SortBy),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// RecordVote records a helpfulness vote and increments the matching counter in
// a single transaction. The vote table's composite primary key makes the
// insert-if-absent atomic under concurrent requests; a conflict means the user
// has already voted and the counters stay untouched.
func (r *ReviewRepository) RecordVote(ctx context.Context, vote *domain.Vote) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	voteQuery := `
		INSERT INTO review_votes (review_id, user_id, is_helpful, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (review_id, user_id) DO NOTHING`

	ct, err := tx.Exec(ctx, voteQuery, vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert review vote: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Duplicate vote; nothing changed.
		return false, nil
	}

	counter := "not_helpful"
	if vote.IsHelpful {
		counter = "helpful"
	}

	counterQuery := fmt.Sprintf(`UPDATE reviews SET %s = %s + 1, updated_at = $1 WHERE id = $2`, counter, counter)

	ct, err = tx.Exec(ctx, counterQuery, vote.CreatedAt, vote.ReviewID)
	if err != nil {
		return false, fmt.Errorf("increment %s counter: %w", counter, err)
	}
	if ct.RowsAffected() == 0 {
		return false, apperrors.NotFound("review", vote.ReviewID)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

// sortClause maps a sort order to its ORDER BY expression. Unknown values
// fall back to newest first.
func sortClause(sortBy string) string {
	switch sortBy {
	case domain.SortOldest:
		return "created_at ASC"
	case domain.SortHighest:
		return "rating DESC, created_at DESC"
	case domain.SortLowest:
		return "rating ASC, created_at DESC"
	case domain.SortMostHelpful:
		return "helpful DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// nullIfEmpty maps empty strings to SQL NULL for nullable text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// scanReview scans a single review row.
func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rev       domain.Review
		userID    *string
		frequency *string
		token     *string
	)

	err := row.Scan(
		&rev.ID,
		&rev.CapabilityID,
		&rev.CapabilityName,
		&userID,
		&rev.UserEmail,
		&rev.UserName,
		&rev.Organization,
		&rev.Role,
		&rev.Rating,
		&rev.Title,
		&rev.Body,
		&rev.Pros,
		&rev.Cons,
		&frequency,
		&rev.RecommendToOthers,
		&rev.Helpful,
		&rev.NotHelpful,
		&rev.Status,
		&rev.VerificationStatus,
		&token,
		&rev.IsVerifiedPurchase,
		&rev.EmailSentAt,
		&rev.VerifiedAt,
		&rev.PublishedAt,
		&rev.ModeratorNotes,
		&rev.CreatedAt,
		&rev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		rev.UserID = *userID
	}
	if frequency != nil {
		rev.UsageFrequency = *frequency
	}
	if token != nil {
		rev.VerificationToken = *token
	}

	return &rev, nil
}
