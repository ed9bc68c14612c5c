package domain

import (
	"math"
	"sort"
	"time"
)

// topListSize bounds the common pros/cons lists in Stats.
const topListSize = 5

// Stats is the derived, read-only aggregate over the published reviews of a
// capability. It is always recomputed from source reviews (or served from a
// cache that is invalidated on every review state change), never stored.
type Stats struct {
	CapabilityID          string      `json:"capability_id"`
	TotalReviews          int         `json:"total_reviews"`
	AverageRating         float64     `json:"average_rating"`
	RatingDistribution    map[int]int `json:"rating_distribution"`
	VerifiedPurchaseCount int         `json:"verified_purchase_count"`
	RecommendationRate    float64     `json:"recommendation_rate"`
	CommonPros            []string    `json:"common_pros"`
	CommonCons            []string    `json:"common_cons"`
	LastReviewDate        *time.Time  `json:"last_review_date,omitempty"`
}

// ComputeStats aggregates the given published reviews into Stats. The average
// rating is rounded to one decimal place. An empty input yields zeroed counts
// and an average rating of 0.
func ComputeStats(capabilityID string, reviews []Review) *Stats {
	stats := &Stats{
		CapabilityID:       capabilityID,
		TotalReviews:       len(reviews),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		CommonPros:         []string{},
		CommonCons:         []string{},
	}

	if len(reviews) == 0 {
		return stats
	}

	var (
		totalRating    int
		recommendCount int
		lastReview     time.Time
	)
	prosFreq := make(map[string]int)
	consFreq := make(map[string]int)

	for i := range reviews {
		r := &reviews[i]
		totalRating += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			stats.RatingDistribution[r.Rating]++
		}
		if r.IsVerifiedPurchase {
			stats.VerifiedPurchaseCount++
		}
		if r.RecommendToOthers {
			recommendCount++
		}
		for _, pro := range r.Pros {
			prosFreq[pro]++
		}
		for _, con := range r.Cons {
			consFreq[con]++
		}
		if r.CreatedAt.After(lastReview) {
			lastReview = r.CreatedAt
		}
	}

	stats.AverageRating = math.Round(float64(totalRating)/float64(len(reviews))*10) / 10
	stats.RecommendationRate = float64(recommendCount) / float64(len(reviews)) * 100
	stats.CommonPros = topByFrequency(prosFreq, topListSize)
	stats.CommonCons = topByFrequency(consFreq, topListSize)
	stats.LastReviewDate = &lastReview

	return stats
}

// topByFrequency returns up to n entries ordered by descending frequency.
// Ties break alphabetically so the result is deterministic.
func topByFrequency(freq map[string]int, n int) []string {
	entries := make([]string, 0, len(freq))
	for k := range freq {
		entries = append(entries, k)
	}
	sort.Slice(entries, func(i, j int) bool {
		if freq[entries[i]] != freq[entries[j]] {
			return freq[entries[i]] > freq[entries[j]]
		}
		return entries[i] < entries[j]
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
