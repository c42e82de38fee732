package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	})
}

// The scheduler parses schedules with a seconds field; a typo here
// would only surface at AddJob time in production.
func TestSchedulesParse(t *testing.T) {
	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	schedules := map[string]string{
		"position_check":      NewPositionCheckJob(nil, testLogger()).Schedule(),
		"quote_cache_cleanup": NewQuoteCacheCleanupJob(nil, testLogger()).Schedule(),
	}

	for name, expr := range schedules {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(expr)
			assert.NoError(t, err, "schedule %q must parse", expr)
		})
	}
}

func TestPositionCheckSchedule(t *testing.T) {
	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)
	sched, err := parser.Parse(NewPositionCheckJob(nil, testLogger()).Schedule())
	require.NoError(t, err)

	kst := time.FixedZone("KST", 9*60*60)

	// Monday 12:00 KST: next run is Tuesday 07:10
	monday := time.Date(2025, 6, 16, 12, 0, 0, 0, kst)
	next := sched.Next(monday)
	assert.Equal(t, time.Tuesday, next.Weekday())
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 10, next.Minute())

	// Saturday 08:00 KST: Sunday and Monday have no completed session, so Tuesday
	saturday := time.Date(2025, 6, 21, 8, 0, 0, 0, kst)
	next = sched.Next(saturday)
	assert.Equal(t, time.Tuesday, next.Weekday())
}

func TestQuoteCacheCleanupRun(t *testing.T) {
	cache := yahoo.NewQuoteCache(time.Minute, testLogger())
	cache.Set(&contracts.Quote{Ticker: "STALE", Price: 10, FetchedAt: time.Now().Add(-2 * time.Minute)})
	cache.Set(&contracts.Quote{Ticker: "FRESH", Price: 20, FetchedAt: time.Now()})

	job := NewQuoteCacheCleanupJob(cache, testLogger())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("FRESH")
	assert.True(t, ok)
	_, ok = cache.Get("STALE")
	assert.False(t, ok)
}
