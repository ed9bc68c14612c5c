package domain

import "time"

// Analytics time range identifiers.
const (
	RangeHour  = "1h"
	RangeDay   = "24h"
	RangeWeek  = "7d"
	RangeMonth = "30d"
)

// WindowForRange maps a time range identifier to its duration. Unknown
// identifiers fall back to the weekly window.
func WindowForRange(timeRange string) time.Duration {
	switch timeRange {
	case RangeHour:
		return time.Hour
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// AnalyticsRow is one raw usage sample of an API integration.
type AnalyticsRow struct {
	APIID        string    `json:"api_id"`
	Requests     int       `json:"requests"`
	Errors       int       `json:"errors"`
	ResponseTime float64   `json:"response_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// APIAnalytics is the aggregate over the usage samples of one API within a
// time window. Timeline carries the raw samples in chronological order.
type APIAnalytics struct {
	APIID               string         `json:"api_id"`
	TimeRange           string         `json:"time_range"`
	Requests            int            `json:"requests"`
	Errors              int            `json:"errors"`
	AverageResponseTime float64        `json:"average_response_time"`
	Timeline            []AnalyticsRow `json:"timeline"`
}

// AggregateAnalytics folds raw samples into the aggregate view. The average
// response time is weighted by request count; zero requests yield zero.
func AggregateAnalytics(apiID, timeRange string, rows []AnalyticsRow) *APIAnalytics {
	agg := &APIAnalytics{
		APIID:     apiID,
		TimeRange: timeRange,
		Timeline:  rows,
	}
	if agg.Timeline == nil {
		agg.Timeline = []AnalyticsRow{}
	}

	var weighted float64
	for _, row := range rows {
		agg.Requests += row.Requests
		agg.Errors += row.Errors
		weighted += row.ResponseTime * float64(row.Requests)
	}

	if agg.Requests > 0 {
		agg.AverageResponseTime = weighted / float64(agg.Requests)
	}

	return agg
}
