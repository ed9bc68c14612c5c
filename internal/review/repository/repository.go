package repository

import (
	"context"
	"time"

	"github.com/innospot/capability-hub/internal/review/domain"
)

// ReviewRepository defines the persistence operations for reviews and votes.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Update writes the mutable workflow fields of a review (status,
	// verification state, token, timestamps, moderator notes). Helpfulness
	// counters are excluded: they change only through RecordVote.
	Update(ctx context.Context, review *domain.Review) error

	// MarkEmailSent stamps the verification-email dispatch on a review.
	MarkEmailSent(ctx context.Context, id string, at time.Time) error

	// ListPublished returns the published reviews of a capability matching
	// the given filter, ordered per filter.SortBy (newest first by default).
	ListPublished(ctx context.Context, capabilityID string, filter domain.Filter) ([]domain.Review, error)

	// RecordVote atomically records a helpfulness vote and increments the
	// matching counter. It returns false without error when the (review,
	// user) pair has already voted: the vote table's primary key is the
	// uniqueness guard, not a read-then-write in application code.
	RecordVote(ctx context.Context, vote *domain.Vote) (bool, error)
}
