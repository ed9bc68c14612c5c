package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innospot/capability-hub/internal/review/domain"
	"github.com/innospot/capability-hub/pkg/database"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewReviewRepository(mock)
	return repo, mock
}

func sampleReview() *domain.Review {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	return &domain.Review{
		ID:                 "rev-001",
		CapabilityID:       "cap-001",
		CapabilityName:     "Prior Art Search",
		UserID:             "user-001",
		UserEmail:          "jane@acme.com",
		UserName:           "Jane Doe",
		Organization:       "Acme IP",
		Role:               "Patent Analyst",
		Rating:             5,
		Title:              "Excellent search quality",
		Body:               "Found relevant prior art we had missed for months.",
		Pros:               []string{"accuracy", "speed"},
		Cons:               []string{"pricing"},
		UsageFrequency:     domain.FrequencyWeekly,
		RecommendToOthers:  true,
		Helpful:            3,
		NotHelpful:         1,
		Status:             domain.StatusPublished,
		VerificationStatus: domain.VerificationEmailVerified,
		IsVerifiedPurchase: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func reviewRowColumns() []string {
	return []string{
		"id", "capability_id", "capability_name", "user_id", "user_email",
		"user_name", "organization", "role", "rating", "title", "body", "pros",
		"cons", "usage_frequency", "recommend_to_others", "helpful",
		"not_helpful", "status", "verification_status", "verification_token",
		"is_verified_purchase", "email_sent_at", "verified_at", "published_at",
		"moderator_notes", "created_at", "updated_at",
	}
}

func reviewRow(rev *domain.Review) *pgxmock.Rows {
	return pgxmock.NewRows(reviewRowColumns()).
		AddRow(
			rev.ID, rev.CapabilityID, rev.CapabilityName, nullIfEmpty(rev.UserID),
			rev.UserEmail, rev.UserName, rev.Organization, rev.Role, rev.Rating,
			rev.Title, rev.Body, rev.Pros, rev.Cons,
			nullIfEmpty(rev.UsageFrequency), rev.RecommendToOthers, rev.Helpful,
			rev.NotHelpful, rev.Status, rev.VerificationStatus,
			nullIfEmpty(rev.VerificationToken), rev.IsVerifiedPurchase,
			rev.EmailSentAt, rev.VerifiedAt, rev.PublishedAt, rev.ModeratorNotes,
			rev.CreatedAt, rev.UpdatedAt,
		)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestReviewRepository_Create_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rev.ID, rev.CapabilityID, rev.CapabilityName, nullIfEmpty(rev.UserID),
			rev.UserEmail, rev.UserName, rev.Organization, rev.Role, rev.Rating,
			rev.Title, rev.Body, rev.Pros, rev.Cons,
			nullIfEmpty(rev.UsageFrequency), rev.RecommendToOthers, rev.Helpful,
			rev.NotHelpful, rev.Status, rev.VerificationStatus,
			nullIfEmpty(rev.VerificationToken), rev.IsVerifiedPurchase,
			rev.EmailSentAt, rev.VerifiedAt, rev.PublishedAt, rev.ModeratorNotes,
			rev.CreatedAt, rev.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), rev)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_DatabaseError(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rev.ID, rev.CapabilityID, rev.CapabilityName, nullIfEmpty(rev.UserID),
			rev.UserEmail, rev.UserName, rev.Organization, rev.Role, rev.Rating,
			rev.Title, rev.Body, rev.Pros, rev.Cons,
			nullIfEmpty(rev.UsageFrequency), rev.RecommendToOthers, rev.Helpful,
			rev.NotHelpful, rev.Status, rev.VerificationStatus,
			nullIfEmpty(rev.VerificationToken), rev.IsVerifiedPurchase,
			rev.EmailSentAt, rev.VerifiedAt, rev.PublishedAt, rev.ModeratorNotes,
			rev.CreatedAt, rev.UpdatedAt,
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), rev)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestReviewRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id =").
		WithArgs(rev.ID).
		WillReturnRows(reviewRow(rev))

	got, err := repo.GetByID(context.Background(), rev.ID)

	require.NoError(t, err)
	assert.Equal(t, rev.ID, got.ID)
	assert.Equal(t, rev.CapabilityID, got.CapabilityID)
	assert.Equal(t, rev.UserID, got.UserID)
	assert.Equal(t, rev.Pros, got.Pros)
	assert.Equal(t, rev.Status, got.Status)
	assert.Equal(t, rev.Helpful, got.Helpful)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id =").
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "nonexistent")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestReviewRepository_Update_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()
	rev.Status = domain.StatusRejected
	rev.ModeratorNotes = "off-topic content"

	mock.ExpectExec("UPDATE reviews").
		WithArgs(
			rev.Status, rev.VerificationStatus, nullIfEmpty(rev.VerificationToken),
			rev.VerifiedAt, rev.PublishedAt, rev.ModeratorNotes, rev.UpdatedAt,
			rev.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), rev)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()

	mock.ExpectExec("UPDATE reviews").
		WithArgs(
			rev.Status, rev.VerificationStatus, nullIfEmpty(rev.VerificationToken),
			rev.VerifiedAt, rev.PublishedAt, rev.ModeratorNotes, rev.UpdatedAt,
			rev.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), rev)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// MarkEmailSent
// ---------------------------------------------------------------------------

func TestReviewRepository_MarkEmailSent(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	at := time.Date(2026, 3, 10, 9, 31, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE reviews").
		WithArgs(domain.VerificationEmailSent, at, "rev-001", domain.VerificationUnverified).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.MarkEmailSent(context.Background(), "rev-001", at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListPublished
// ---------------------------------------------------------------------------

func TestReviewRepository_ListPublished_NoFilter(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE capability_id = (.+) ORDER BY created_at DESC").
		WithArgs("cap-001", domain.StatusPublished).
		WillReturnRows(reviewRow(rev))

	reviews, err := repo.ListPublished(context.Background(), "cap-001", domain.Filter{})

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, rev.ID, reviews[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListPublished_Empty(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE capability_id =").
		WithArgs("cap-unknown", domain.StatusPublished).
		WillReturnRows(pgxmock.NewRows(reviewRowColumns()))

	reviews, err := repo.ListPublished(context.Background(), "cap-unknown", domain.Filter{})

	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListPublished_AllFilters(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	rev := sampleReview()
	verified := true
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	filter := domain.Filter{
		Ratings:      []int{4, 5},
		Verified:     &verified,
		SearchTerm:   "prior art",
		CreatedAfter: &after,
		CreatedUntil: &until,
		SortBy:       domain.SortMostHelpful,
	}

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE (.+) ORDER BY helpful DESC").
		WithArgs("cap-001", domain.StatusPublished, filter.Ratings, verified, "prior art", after, until).
		WillReturnRows(reviewRow(rev))

	reviews, err := repo.ListPublished(context.Background(), "cap-001", filter)

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListPublished_SearchTermEscaped(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE (.+) ILIKE").
		WithArgs("cap-001", domain.StatusPublished, `50\% faster`).
		WillReturnRows(pgxmock.NewRows(reviewRowColumns()))

	_, err := repo.ListPublished(context.Background(), "cap-001", domain.Filter{SearchTerm: "50% faster"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// RecordVote
// ---------------------------------------------------------------------------

func sampleVote(helpful bool) *domain.Vote {
	return &domain.Vote{
		ReviewID:  "rev-001",
		UserID:    "user-002",
		IsHelpful: helpful,
		CreatedAt: time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC),
	}
}

func TestReviewRepository_RecordVote_HelpfulRecorded(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	vote := sampleVote(true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE reviews SET helpful = helpful").
		WithArgs(vote.CreatedAt, vote.ReviewID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	recorded, err := repo.RecordVote(context.Background(), vote)

	require.NoError(t, err)
	assert.True(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RecordVote_NotHelpfulRecorded(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	vote := sampleVote(false)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE reviews SET not_helpful = not_helpful").
		WithArgs(vote.CreatedAt, vote.ReviewID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	recorded, err := repo.RecordVote(context.Background(), vote)

	require.NoError(t, err)
	assert.True(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RecordVote_DuplicateIgnored(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	vote := sampleVote(true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	recorded, err := repo.RecordVote(context.Background(), vote)

	require.NoError(t, err)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RecordVote_ReviewMissing(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	vote := sampleVote(true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO review_votes").
		WithArgs(vote.ReviewID, vote.UserID, vote.IsHelpful, vote.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE reviews SET helpful = helpful").
		WithArgs(vote.CreatedAt, vote.ReviewID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	recorded, err := repo.RecordVote(context.Background(), vote)

	assert.False(t, recorded)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// sortClause
// ---------------------------------------------------------------------------

func TestSortClause(t *testing.T) {
	tests := []struct {
		sortBy   string
		expected string
	}{
		{domain.SortNewest, "created_at DESC"},
		{domain.SortOldest, "created_at ASC"},
		{domain.SortHighest, "rating DESC, created_at DESC"},
		{domain.SortLowest, "rating ASC, created_at DESC"},
		{domain.SortMostHelpful, "helpful DESC, created_at DESC"},
		{"", "created_at DESC"},
		{"unknown", "created_at DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, sortClause(tt.sortBy))
	}
}
