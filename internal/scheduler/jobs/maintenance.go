package jobs

import (
	"context"

	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// QuoteCacheCleanupJob drops stale quote snapshots from the cache
type QuoteCacheCleanupJob struct {
	cache  *yahoo.QuoteCache
	logger *logger.Logger
}

// NewQuoteCacheCleanupJob creates a new quote cache cleanup job
func NewQuoteCacheCleanupJob(quoteCache *yahoo.QuoteCache, log *logger.Logger) *QuoteCacheCleanupJob {
	return &QuoteCacheCleanupJob{
		cache:  quoteCache,
		logger: log,
	}
}

// Name returns the job name
func (j *QuoteCacheCleanupJob) Name() string {
	return "quote_cache_cleanup"
}

// Schedule returns the cron schedule (every 15 minutes)
func (j *QuoteCacheCleanupJob) Schedule() string {
	return "0 */15 * * * *"
}

// Run executes the cache cleanup
func (j *QuoteCacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled quote cache cleanup")

	count := j.cache.CleanStale()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Quote cache cleanup completed")
	}

	return nil
}
