package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/innospot/capability-hub/internal/review/domain"
	pkgkafka "github.com/innospot/capability-hub/pkg/kafka"
)

// Kafka topics for review domain events.
var (
	TopicReviewSubmitted = pkgkafka.Topic("review", "submitted")
	TopicReviewPublished = pkgkafka.Topic("review", "published")
	TopicReviewRejected  = pkgkafka.Topic("review", "rejected")
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review workflow.
const SourceReviewWorkflow = "review-workflow"

// ReviewSubmittedData is the payload for a review.submitted event.
type ReviewSubmittedData struct {
	ReviewID     string `json:"review_id"`
	CapabilityID string `json:"capability_id"`
	Rating       int    `json:"rating"`
	UserEmail    string `json:"user_email"`
}

// ReviewPublishedData is the payload for a review.published event.
type ReviewPublishedData struct {
	ReviewID     string `json:"review_id"`
	CapabilityID string `json:"capability_id"`
	Rating       int    `json:"rating"`
	AutoApproved bool   `json:"auto_approved"`
}

// ReviewRejectedData is the payload for a review.rejected event.
type ReviewRejectedData struct {
	ReviewID     string `json:"review_id"`
	CapabilityID string `json:"capability_id"`
	Reason       string `json:"reason,omitempty"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review workflow.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, rev *domain.Review) error {
	data := ReviewSubmittedData{
		ReviewID:     rev.ID,
		CapabilityID: rev.CapabilityID,
		Rating:       rev.Rating,
		UserEmail:    rev.UserEmail,
	}
	return p.publish(ctx, TopicReviewSubmitted, "review.submitted", rev.ID, data)
}

// PublishReviewPublished publishes a review.published event.
func (p *Producer) PublishReviewPublished(ctx context.Context, rev *domain.Review, autoApproved bool) error {
	data := ReviewPublishedData{
		ReviewID:     rev.ID,
		CapabilityID: rev.CapabilityID,
		Rating:       rev.Rating,
		AutoApproved: autoApproved,
	}
	return p.publish(ctx, TopicReviewPublished, "review.published", rev.ID, data)
}

// PublishReviewRejected publishes a review.rejected event.
func (p *Producer) PublishReviewRejected(ctx context.Context, rev *domain.Review, reason string) error {
	data := ReviewRejectedData{
		ReviewID:     rev.ID,
		CapabilityID: rev.CapabilityID,
		Reason:       reason,
	}
	return p.publish(ctx, TopicReviewRejected, "review.rejected", rev.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, AggregateTypeReview, SourceReviewWorkflow, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return p.kafka.Publish(ctx, topic, evt)
}
