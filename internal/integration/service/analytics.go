package service

import (
	"context"
	"fmt"
	"time"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

// GetAPIAnalytics aggregates the usage samples of an API over the requested
// time range. Unknown range identifiers fall back to the weekly window.
func (s *IntegrationService) GetAPIAnalytics(ctx context.Context, apiID, timeRange string) (*domain.APIAnalytics, error) {
	if apiID == "" {
		return nil, apperrors.InvalidInput("api_id is required")
	}

	since := time.Now().UTC().Add(-domain.WindowForRange(timeRange))

	rows, err := s.analytics.FetchRows(ctx, apiID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch analytics: %w", err)
	}

	return domain.AggregateAnalytics(apiID, timeRange, rows), nil
}
