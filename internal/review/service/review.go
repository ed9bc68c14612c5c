package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/innospot/capability-hub/internal/review/domain"
	"github.com/innospot/capability-hub/internal/review/event"
	"github.com/innospot/capability-hub/internal/review/mailer"
	"github.com/innospot/capability-hub/internal/review/repository"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
	"github.com/innospot/capability-hub/pkg/validator"
)

// DefaultTokenTTL is the verification-token expiry window measured from
// review creation.
const DefaultTokenTTL = 24 * time.Hour

// Config holds the tunables of the review workflow.
type Config struct {
	// TokenTTL is the verification token expiry window. Zero means DefaultTokenTTL.
	TokenTTL time.Duration

	// VerifyBaseURL is the public page that consumes verification links,
	// e.g. "https://app.innospot.com/verify-review".
	VerifyBaseURL string
}

// ReviewService implements the review submission, verification, moderation,
// voting and statistics workflow.
type ReviewService struct {
	repo     repository.ReviewRepository
	mailer   mailer.Mailer
	producer *event.Producer
	cache    *StatsCache
	logger   *slog.Logger
	cfg      Config
}

// NewReviewService creates a new review workflow service. The cache may be
// nil, in which case statistics are recomputed on every call.
func NewReviewService(repo repository.ReviewRepository, m mailer.Mailer, producer *event.Producer, cache *StatsCache, logger *slog.Logger, cfg Config) *ReviewService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &ReviewService{
		repo:     repo,
		mailer:   m,
		producer: producer,
		cache:    cache,
		logger:   logger,
		cfg:      cfg,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	CapabilityID       string   `json:"capability_id" validate:"required"`
	CapabilityName     string   `json:"capability_name" validate:"required"`
	UserID             string   `json:"user_id"`
	UserEmail          string   `json:"user_email" validate:"required,email"`
	UserName           string   `json:"user_name" validate:"required"`
	Organization       string   `json:"organization"`
	Role               string   `json:"role"`
	Rating             int      `json:"rating" validate:"required,gte=1,lte=5"`
	Title              string   `json:"title" validate:"required,max=200"`
	Body               string   `json:"body" validate:"required"`
	Pros               []string `json:"pros"`
	Cons               []string `json:"cons"`
	UsageFrequency     string   `json:"usage_frequency" validate:"omitempty,oneof=daily weekly monthly occasionally"`
	RecommendToOthers  bool     `json:"recommend_to_others"`
	IsVerifiedPurchase bool     `json:"is_verified_purchase"`
}

// SubmitResult reports the outcome of a review submission.
type SubmitResult struct {
	ReviewID string `json:"review_id"`
	Message  string `json:"message"`
}

// SubmitReview validates the submission, persists the review in pending
// status and dispatches the verification email. The email is best-effort:
// a delivery failure is logged and never rolls back the created record.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*SubmitResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now().UTC()
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	rev := &domain.Review{
		ID:                 uuid.New().String(),
		CapabilityID:       input.CapabilityID,
		CapabilityName:     input.CapabilityName,
		UserID:             input.UserID,
		UserEmail:          input.UserEmail,
		UserName:           input.UserName,
		Organization:       input.Organization,
		Role:               input.Role,
		Rating:             input.Rating,
		Title:              input.Title,
		Body:               input.Body,
		Pros:               input.Pros,
		Cons:               input.Cons,
		UsageFrequency:     input.UsageFrequency,
		RecommendToOthers:  input.RecommendToOthers,
		Status:             domain.StatusPending,
		VerificationStatus: domain.VerificationUnverified,
		VerificationToken:  token,
		IsVerifiedPurchase: input.IsVerifiedPurchase,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.sendVerificationEmail(ctx, rev)

	if err := s.producer.PublishReviewSubmitted(ctx, rev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", rev.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", rev.ID),
		slog.String("capability_id", rev.CapabilityID),
		slog.Int("rating", rev.Rating),
	)

	return &SubmitResult{
		ReviewID: rev.ID,
		Message:  "Review submitted successfully! Please check your email to verify and publish your review.",
	}, nil
}

// VerifyResult reports the outcome of a successful verification.
type VerifyResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyReview consumes a verification token. The token is single-use: it is
// cleared on success, so a second call with the same token fails. Verified
// purchases are published immediately; everything else becomes approved and
// waits for moderation.
func (s *ReviewService) VerifyReview(ctx context.Context, reviewID, token string) (*VerifyResult, error) {
	rev, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for verification: %w", err)
	}

	// Moderation may already have closed the review; a verification link
	// cannot reopen a terminal status.
	if rev.IsTerminal() {
		return nil, apperrors.InvalidToken()
	}

	if rev.VerificationToken == "" || rev.VerificationToken != token {
		return nil, apperrors.InvalidToken()
	}

	now := time.Now().UTC()
	if now.After(rev.CreatedAt.Add(s.cfg.TokenTTL)) {
		return nil, apperrors.TokenExpired()
	}

	rev.VerificationStatus = domain.VerificationEmailVerified
	rev.VerificationToken = ""
	rev.VerifiedAt = &now
	rev.UpdatedAt = now

	autoApproved := rev.IsVerifiedPurchase
	if autoApproved {
		rev.VerificationStatus = domain.VerificationVerifiedPurchase
		rev.Status = domain.StatusPublished
		rev.PublishedAt = &now
	} else {
		rev.Status = domain.StatusApproved
	}

	if err := s.repo.Update(ctx, rev); err != nil {
		return nil, fmt.Errorf("apply verification: %w", err)
	}

	s.cache.Invalidate(ctx, rev.CapabilityID)

	if autoApproved {
		subject, body := mailer.ApprovalEmail(rev.UserName)
		s.sendEmail(ctx, rev, subject, body)

		if err := s.producer.PublishReviewPublished(ctx, rev, true); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.published event",
				slog.String("review_id", rev.ID),
				slog.String("error", err.Error()),
			)
		}
	} else {
		subject, body := mailer.VerificationConfirmedEmail(rev.UserName)
		s.sendEmail(ctx, rev, subject, body)
	}

	s.logger.InfoContext(ctx, "review verified",
		slog.String("review_id", rev.ID),
		slog.String("status", rev.Status),
		slog.Bool("auto_approved", autoApproved),
	)

	message := "Review verified. It will be published after moderation."
	if autoApproved {
		message = "Review verified and published successfully!"
	}

	return &VerifyResult{Status: rev.Status, Message: message}, nil
}

// GetCapabilityReviews returns the published reviews of a capability, with
// the optional filter applied. Reviews in any other status are never exposed.
func (s *ReviewService) GetCapabilityReviews(ctx context.Context, capabilityID string, filter *domain.Filter) ([]domain.Review, error) {
	if capabilityID == "" {
		return nil, apperrors.InvalidInput("capability_id is required")
	}

	f := domain.Filter{}
	if filter != nil {
		f = *filter
	}
	if f.SortBy != "" && !domain.IsValidSortOrder(f.SortBy) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid sort order %q, must be one of: %s", f.SortBy, strings.Join(domain.ValidSortOrders(), ", ")))
	}

	reviews, err := s.repo.ListPublished(ctx, capabilityID, f)
	if err != nil {
		return nil, fmt.Errorf("list capability reviews: %w", err)
	}

	return reviews, nil
}

// GetReviewStats computes the aggregate statistics over the published reviews
// of a capability, serving from the cache when possible.
func (s *ReviewService) GetReviewStats(ctx context.Context, capabilityID string) (*domain.Stats, error) {
	if capabilityID == "" {
		return nil, apperrors.InvalidInput("capability_id is required")
	}

	if stats, ok := s.cache.Get(ctx, capabilityID); ok {
		return stats, nil
	}

	reviews, err := s.repo.ListPublished(ctx, capabilityID, domain.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load reviews for stats: %w", err)
	}

	stats := domain.ComputeStats(capabilityID, reviews)
	s.cache.Set(ctx, capabilityID, stats)

	return stats, nil
}

// MarkReviewHelpfulness records a helpfulness vote. It returns false when the
// user has already voted on the review; votes are write-once and the counters
// stay untouched on a duplicate.
func (s *ReviewService) MarkReviewHelpfulness(ctx context.Context, reviewID, userID string, isHelpful bool) (bool, error) {
	if reviewID == "" || userID == "" {
		return false, apperrors.InvalidInput("review_id and user_id are required")
	}

	recorded, err := s.repo.RecordVote(ctx, &domain.Vote{
		ReviewID:  reviewID,
		UserID:    userID,
		IsHelpful: isHelpful,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("record helpfulness vote: %w", err)
	}

	if !recorded {
		s.logger.DebugContext(ctx, "duplicate helpfulness vote ignored",
			slog.String("review_id", reviewID),
			slog.String("user_id", userID),
		)
	}

	return recorded, nil
}

// ModerateReviewInput holds the parameters for a moderation action.
type ModerateReviewInput struct {
	ReviewID    string `json:"review_id" validate:"required"`
	ModeratorID string `json:"moderator_id" validate:"required"`
	Action      string `json:"action" validate:"required,oneof=approve reject flag"`
	Reason      string `json:"reason"`
}

// ModerateReview applies a moderation action: approve publishes the review,
// reject terminates it with a reason, flag only annotates the moderator notes
// without touching the status.
func (s *ReviewService) ModerateReview(ctx context.Context, input ModerateReviewInput) error {
	if err := validator.Validate(input); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	rev, err := s.repo.GetByID(ctx, input.ReviewID)
	if err != nil {
		return fmt.Errorf("get review for moderation: %w", err)
	}

	now := time.Now().UTC()

	switch input.Action {
	case domain.ModerationApprove:
		if !rev.CanTransitionTo(domain.StatusPublished) {
			return apperrors.InvalidInput(fmt.Sprintf("cannot publish review in %q status", rev.Status))
		}
		rev.Status = domain.StatusPublished
		rev.PublishedAt = &now

	case domain.ModerationReject:
		if !rev.CanTransitionTo(domain.StatusRejected) {
			return apperrors.InvalidInput(fmt.Sprintf("cannot reject review in %q status", rev.Status))
		}
		rev.Status = domain.StatusRejected
		rev.ModeratorNotes = input.Reason
		// Void any outstanding verification link.
		rev.VerificationToken = ""

	case domain.ModerationFlag:
		note := "Flagged: " + input.Reason
		if rev.ModeratorNotes != "" {
			note = rev.ModeratorNotes + "\n" + note
		}
		rev.ModeratorNotes = note
	}

	rev.UpdatedAt = now

	if err := s.repo.Update(ctx, rev); err != nil {
		return fmt.Errorf("apply moderation: %w", err)
	}

	switch input.Action {
	case domain.ModerationApprove:
		s.cache.Invalidate(ctx, rev.CapabilityID)
		subject, body := mailer.ApprovalEmail(rev.UserName)
		s.sendEmail(ctx, rev, subject, body)
		if err := s.producer.PublishReviewPublished(ctx, rev, false); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.published event",
				slog.String("review_id", rev.ID),
				slog.String("error", err.Error()),
			)
		}

	case domain.ModerationReject:
		s.cache.Invalidate(ctx, rev.CapabilityID)
		subject, body := mailer.RejectionEmail(rev.UserName, input.Reason)
		s.sendEmail(ctx, rev, subject, body)
		if err := s.producer.PublishReviewRejected(ctx, rev, input.Reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.rejected event",
				slog.String("review_id", rev.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", rev.ID),
		slog.String("moderator_id", input.ModeratorID),
		slog.String("action", input.Action),
		slog.String("status", rev.Status),
	)

	return nil
}

// sendVerificationEmail dispatches the verification email and, on success,
// stamps the review as email-sent. Both steps are best-effort.
func (s *ReviewService) sendVerificationEmail(ctx context.Context, rev *domain.Review) {
	link := s.verificationURL(rev.ID, rev.VerificationToken)
	subject, body := mailer.VerificationEmail(rev.UserName, link)

	if err := s.mailer.Send(ctx, rev.UserEmail, subject, body); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("review_id", rev.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.repo.MarkEmailSent(ctx, rev.ID, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp verification email dispatch",
			slog.String("review_id", rev.ID),
			slog.String("error", err.Error()),
		)
	}
}

// sendEmail delivers a workflow notification, logging instead of failing.
func (s *ReviewService) sendEmail(ctx context.Context, rev *domain.Review, subject, body string) {
	if err := s.mailer.Send(ctx, rev.UserEmail, subject, body); err != nil {
		s.logger.ErrorContext(ctx, "failed to send review email",
			slog.String("review_id", rev.ID),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

// verificationURL builds the link embedded in verification emails.
func (s *ReviewService) verificationURL(reviewID, token string) string {
	base := s.cfg.VerifyBaseURL
	if base == "" {
		base = "https://app.innospot.com/verify-review"
	}
	params := url.Values{}
	params.Set("id", reviewID)
	params.Set("token", token)
	return base + "?" + params.Encode()
}

// generateToken returns a 64-character hex token from a cryptographically
// strong random source.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
