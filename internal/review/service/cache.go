package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/innospot/capability-hub/internal/review/domain"
)

// DefaultStatsTTL bounds how stale cached statistics may get even without
// explicit invalidation.
const DefaultStatsTTL = 5 * time.Minute

// StatsCache caches computed review statistics in Redis, keyed by capability.
// A nil *StatsCache is valid and disables caching entirely.
type StatsCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewStatsCache creates a stats cache. Zero ttl means DefaultStatsTTL.
func NewStatsCache(client *redis.Client, logger *slog.Logger, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func statsKey(capabilityID string) string {
	return "review:stats:" + capabilityID
}

// Get returns the cached statistics for a capability, if present. Cache
// errors are logged and treated as misses.
func (c *StatsCache) Get(ctx context.Context, capabilityID string) (*domain.Stats, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, statsKey(capabilityID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "stats cache read failed",
				slog.String("capability_id", capabilityID),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var stats domain.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.WarnContext(ctx, "stats cache entry corrupt, dropping",
			slog.String("capability_id", capabilityID),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, capabilityID)
		return nil, false
	}

	return &stats, true
}

// Set stores the statistics for a capability. Failures are logged, not
// propagated.
func (c *StatsCache) Set(ctx context.Context, capabilityID string, stats *domain.Stats) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.WarnContext(ctx, "stats cache encode failed",
			slog.String("capability_id", capabilityID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, statsKey(capabilityID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache write failed",
			slog.String("capability_id", capabilityID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached statistics for a capability.
func (c *StatsCache) Invalidate(ctx context.Context, capabilityID string) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, statsKey(capabilityID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache invalidation failed",
			slog.String("capability_id", capabilityID),
			slog.String("error", err.Error()),
		)
	}
}
