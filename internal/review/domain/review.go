package domain

import "time"

// Review status constants.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPublished = "published"
)

// Verification status constants.
const (
	VerificationUnverified       = "unverified"
	VerificationEmailSent        = "email-sent"
	VerificationEmailVerified    = "email-verified"
	VerificationVerifiedPurchase = "verified-purchase"
)

// Usage frequency constants.
const (
	FrequencyDaily        = "daily"
	FrequencyWeekly       = "weekly"
	FrequencyMonthly      = "monthly"
	FrequencyOccasionally = "occasionally"
)

// Review represents a user's evaluation of a capability. A review moves
// through the moderation state machine before it becomes publicly visible.
type Review struct {
	ID                 string     `json:"id"`
	CapabilityID       string     `json:"capability_id"`
	CapabilityName     string     `json:"capability_name"`
	UserID             string     `json:"user_id,omitempty"`
	UserEmail          string     `json:"user_email"`
	UserName           string     `json:"user_name"`
	Organization       string     `json:"organization,omitempty"`
	Role               string     `json:"role,omitempty"`
	Rating             int        `json:"rating"`
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	Pros               []string   `json:"pros,omitempty"`
	Cons               []string   `json:"cons,omitempty"`
	UsageFrequency     string     `json:"usage_frequency,omitempty"`
	RecommendToOthers  bool       `json:"recommend_to_others"`
	Helpful            int        `json:"helpful"`
	NotHelpful         int        `json:"not_helpful"`
	Status             string     `json:"status"`
	VerificationStatus string     `json:"verification_status"`
	VerificationToken  string     `json:"-"`
	IsVerifiedPurchase bool       `json:"is_verified_purchase"`
	EmailSentAt        *time.Time `json:"email_sent_at,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	ModeratorNotes     string     `json:"moderator_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Vote records one user's helpfulness vote on one review. Votes are
// write-once: the (ReviewID, UserID) pair is unique and never overwritten.
type Vote struct {
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	IsHelpful bool      `json:"is_helpful"`
	CreatedAt time.Time `json:"created_at"`
}

// Moderation action constants.
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
	ModerationFlag    = "flag"
)

// ValidStatuses returns all valid review statuses.
func ValidStatuses() []string {
	return []string{StatusPending, StatusApproved, StatusRejected, StatusPublished}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Reviews only
// move forward: rejected and published are terminal, so a rejected review can
// never be resurrected without a fresh submission.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		StatusPending:   {StatusApproved, StatusRejected, StatusPublished},
		StatusApproved:  {StatusPublished, StatusRejected},
		StatusRejected:  {},
		StatusPublished: {},
	}
}

// CanTransitionTo checks if the review can transition to the target status.
func (r *Review) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[r.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the review is in a terminal status.
func (r *Review) IsTerminal() bool {
	return r.Status == StatusRejected || r.Status == StatusPublished
}

// ValidFrequencies returns the valid usage frequency values.
func ValidFrequencies() []string {
	return []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOccasionally}
}

// Sort order constants for review listings.
const (
	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortHighest     = "highest"
	SortLowest      = "lowest"
	SortMostHelpful = "most-helpful"
)

// ValidSortOrders returns the valid review sort orders.
func ValidSortOrders() []string {
	return []string{SortNewest, SortOldest, SortHighest, SortLowest, SortMostHelpful}
}

// IsValidSortOrder checks if a sort order string is valid.
func IsValidSortOrder(sort string) bool {
	for _, s := range ValidSortOrders() {
		if s == sort {
			return true
		}
	}
	return false
}

// Filter defines the optional criteria applied when listing published reviews.
type Filter struct {
	Ratings      []int
	Verified     *bool
	SearchTerm   string
	CreatedAfter *time.Time
	CreatedUntil *time.Time
	SortBy       string
}
