package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// Tuesday 23:00 KST - US regular session open
var openTime = time.Date(2025, 6, 17, 23, 0, 0, 0, market.KST)

// Saturday 12:00 KST - closed
var closedTime = time.Date(2025, 6, 14, 12, 0, 0, 0, market.KST)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	})
}

func scanTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scanner.Enabled = true
	cfg.Scanner.ScanInterval = 30 * time.Minute
	cfg.Scanner.DelayPerStock = 0
	cfg.Scanner.ScreeningHour = 23
	cfg.Scanner.ScreeningMinute = 30
	cfg.Scanner.ScreeningBackoff = time.Hour
	return cfg
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeWatchlist struct {
	tickers []string
}

func (f *fakeWatchlist) Combined() []string { return f.tickers }

type fakeDetector struct {
	signals map[string]*contracts.Signal
}

func (f *fakeDetector) Detect(ticker string, bars contracts.Bars) *contracts.Signal {
	return f.signals[ticker]
}

type fakeBarProvider struct {
	errs  map[string]error
	calls []string
}

func (f *fakeBarProvider) DailyBars(ctx context.Context, ticker, rng string) (contracts.Bars, error) {
	f.calls = append(f.calls, ticker)
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	return contracts.Bars{}, nil
}

func (f *fakeBarProvider) LatestQuote(ctx context.Context, ticker string) (*contracts.Quote, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBarProvider) Profile(ctx context.Context, ticker string) (*contracts.StockProfile, error) {
	return nil, errors.New("not implemented")
}

type savedSignal struct {
	signal *contracts.Signal
	source string
}

type fakeAlertRepo struct {
	existing   map[string]bool // ExistsToday per ticker
	existsErr  error
	duplicates map[string]bool // Save returns false for these
	saveErr    error
	saved      []savedSignal
	todayCount int
}

func (f *fakeAlertRepo) Save(ctx context.Context, signal *contracts.Signal, source string) (bool, error) {
	if f.saveErr != nil {
		return false, f.saveErr
	}
	if f.duplicates[signal.Ticker] {
		return false, nil
	}
	f.saved = append(f.saved, savedSignal{signal: signal, source: source})
	return true, nil
}

func (f *fakeAlertRepo) ExistsToday(ctx context.Context, ticker, pattern, source string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[ticker], nil
}

func (f *fakeAlertRepo) CountToday(ctx context.Context) (int, error) { return f.todayCount, nil }

func (f *fakeAlertRepo) GetToday(ctx context.Context) ([]*contracts.Alert, error) { return nil, nil }

func (f *fakeAlertRepo) GetRecent(ctx context.Context, days int) ([]*contracts.Alert, error) {
	return nil, nil
}

func (f *fakeAlertRepo) LatestSentAt(ctx context.Context) (*time.Time, error) { return nil, nil }

type openCall struct {
	signal *contracts.Signal
	source string
}

type fakePositions struct {
	openCalls []openCall
	opened    bool
	openErr   error
}

func (f *fakePositions) OpenFromSignal(ctx context.Context, signal *contracts.Signal, source string) (*contracts.Position, bool, error) {
	f.openCalls = append(f.openCalls, openCall{signal: signal, source: source})
	if f.openErr != nil {
		return nil, false, f.openErr
	}
	if !f.opened {
		return nil, false, nil
	}
	return &contracts.Position{
		Ticker:           signal.Ticker,
		EntryPrice:       signal.Price,
		Quantity:         10,
		InvestmentAmount: signal.Price * 10,
	}, true, nil
}

func (f *fakePositions) HasOpen(ctx context.Context, ticker string) (bool, error) { return false, nil }

func (f *fakePositions) GetOpen(ctx context.Context) ([]*contracts.Position, error) { return nil, nil }

func (f *fakePositions) GetClosed(ctx context.Context, limit int) ([]*contracts.Position, error) {
	return nil, nil
}

func (f *fakePositions) ClosePosition(ctx context.Context, id int, exitPrice float64, reason string, profitPct float64, holdingDays int) error {
	return nil
}

func (f *fakePositions) GetClosedStats(ctx context.Context) (*contracts.ClosedTradeStats, error) {
	return nil, nil
}

func (f *fakePositions) GetMonthly(ctx context.Context, limit int) ([]contracts.MonthlyPerformance, error) {
	return nil, nil
}

func (f *fakePositions) GetStartDate(ctx context.Context) (*time.Time, error) { return nil, nil }

type fakeScreener struct {
	tickers []string
	err     error
	calls   int
}

func (f *fakeScreener) RunAndSave(ctx context.Context) ([]string, error) {
	f.calls++
	return f.tickers, f.err
}

type orchestratorFixture struct {
	orch      *Orchestrator
	pinger    *fakePinger
	detector  *fakeDetector
	provider  *fakeBarProvider
	alerts    *fakeAlertRepo
	positions *fakePositions
	screener  *fakeScreener
	feed      *Feed
}

func newFixture(t *testing.T, tickers []string) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		pinger:    &fakePinger{},
		detector:  &fakeDetector{signals: map[string]*contracts.Signal{}},
		provider:  &fakeBarProvider{errs: map[string]error{}},
		alerts:    &fakeAlertRepo{existing: map[string]bool{}, duplicates: map[string]bool{}},
		positions: &fakePositions{opened: true},
		screener:  &fakeScreener{},
		feed:      NewFeed(testLogger()),
	}
	f.orch = New(scanTestConfig(), testLogger(), f.pinger, &fakeWatchlist{tickers: tickers},
		f.detector, f.provider, f.alerts, f.positions, f.screener, f.feed)
	f.orch.now = func() time.Time { return openTime }
	return f
}

func TestRunScanMarketClosed(t *testing.T) {
	f := newFixture(t, []string{"AAPL"})
	f.orch.now = func() time.Time { return closedTime }

	f.orch.runScan(context.Background())

	status := f.orch.Status()
	skip, ok := status.Scan.LastResults.(contracts.SkippedScan)
	require.True(t, ok, "expected a skipped scan, got %T", status.Scan.LastResults)
	assert.True(t, skip.Skipped)
	assert.Equal(t, contracts.SkipReasonMarketClosed, skip.Reason)
	assert.Nil(t, status.Scan.LastTime, "skipped pass must not move last_time")
	assert.Empty(t, f.provider.calls, "no bars should be fetched while closed")
}

func TestRunScanDBUnreachable(t *testing.T) {
	f := newFixture(t, []string{"AAPL"})
	f.pinger.err = errors.New("connection refused")

	f.orch.runScan(context.Background())

	status := f.orch.Status()
	skip, ok := status.Scan.LastResults.(contracts.SkippedScan)
	require.True(t, ok)
	assert.Equal(t, contracts.SkipReasonDBConnectionFailed, skip.Reason)
	assert.Empty(t, f.provider.calls)
}

func TestRunScanPass(t *testing.T) {
	f := newFixture(t, []string{"DUP", "HIT", "MISS", "BAD"})
	f.alerts.existing["DUP"] = true
	f.alerts.todayCount = 3
	f.provider.errs["BAD"] = errors.New("HTTP 429")
	f.detector.signals["HIT"] = &contracts.Signal{
		Ticker:         "HIT",
		Pattern:        contracts.PatternPivotBreakout,
		Price:          105.50,
		Resistance:     102.00,
		BreakoutPct:    3.43,
		VolumeSurgePct: 80.0,
	}

	ch, cancel := f.feed.Subscribe()
	defer cancel()

	f.orch.runScan(context.Background())

	status := f.orch.Status()
	results, ok := status.Scan.LastResults.(contracts.ScanResults)
	require.True(t, ok, "expected completed results, got %T", status.Scan.LastResults)
	assert.Equal(t, 2, results.Scanned, "HIT and MISS were analyzed")
	assert.Equal(t, 1, results.Skipped, "DUP already alerted today")
	assert.Equal(t, 1, results.Signals)
	assert.Equal(t, 1, results.Errors, "BAD failed to fetch")
	assert.Equal(t, 3, results.TodayTotal)
	require.NotNil(t, status.Scan.LastTime)

	// Duplicate check happens before the chart fetch
	assert.NotContains(t, f.provider.calls, "DUP")

	// Signal was persisted with the background source
	require.Len(t, f.alerts.saved, 1)
	assert.Equal(t, "HIT", f.alerts.saved[0].signal.Ticker)
	assert.Equal(t, contracts.SourceBackgroundScanner, f.alerts.saved[0].source)

	// A paper position was attempted for the saved signal
	require.Len(t, f.positions.openCalls, 1)
	assert.Equal(t, "HIT", f.positions.openCalls[0].signal.Ticker)
	assert.Equal(t, contracts.SourceBackgroundScanner, f.positions.openCalls[0].source)

	// Live subscribers received the persisted alert
	select {
	case alert := <-ch:
		assert.Equal(t, "HIT", alert.Ticker)
		assert.Equal(t, contracts.MarketUS, alert.Market)
		assert.Equal(t, contracts.SourceBackgroundScanner, alert.Source)
		assert.Equal(t, 105.50, alert.AlertPrice)
		assert.Equal(t, 102.00, alert.SignalData.Resistance)
		assert.Equal(t, openTime, alert.SentAt)
	default:
		t.Fatal("no alert published to the feed")
	}
}

func TestRunScanDuplicateSaveDoesNotOpenPosition(t *testing.T) {
	f := newFixture(t, []string{"HIT"})
	f.alerts.duplicates["HIT"] = true
	f.detector.signals["HIT"] = &contracts.Signal{Ticker: "HIT", Price: 50}

	ch, cancel := f.feed.Subscribe()
	defer cancel()

	f.orch.runScan(context.Background())

	status := f.orch.Status()
	results, ok := status.Scan.LastResults.(contracts.ScanResults)
	require.True(t, ok)
	assert.Equal(t, 1, results.Scanned)
	assert.Equal(t, 0, results.Signals, "duplicate save is not a new signal")
	assert.Empty(t, f.positions.openCalls)
	assert.Empty(t, ch)
}

func TestRunScanEmptyWatchlist(t *testing.T) {
	f := newFixture(t, nil)

	f.orch.runScan(context.Background())

	status := f.orch.Status()
	assert.Nil(t, status.Scan.LastResults, "an empty watchlist records nothing")
	assert.Nil(t, status.Scan.LastTime)
}

func TestRunScanCancelledMidPass(t *testing.T) {
	f := newFixture(t, []string{"A", "B", "C"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.orch.runScan(ctx)

	status := f.orch.Status()
	assert.Nil(t, status.Scan.LastResults, "a cancelled pass records nothing")
}

func TestRunScreeningSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.screener.tickers = []string{"AAPL", "MSFT", "NVDA"}

	err := f.orch.runScreening(context.Background())
	require.NoError(t, err)

	status := f.orch.Status()
	require.NotNil(t, status.Screening.LastResults)
	assert.Equal(t, contracts.ScreeningStatusSuccess, status.Screening.LastResults.Status)
	assert.Equal(t, 3, status.Screening.LastResults.StocksSelected)
	require.NotNil(t, status.Screening.LastTime)
	assert.Equal(t, 1, f.screener.calls)
}

func TestRunScreeningError(t *testing.T) {
	f := newFixture(t, nil)
	f.screener.err = errors.New("yahoo timeout")

	err := f.orch.runScreening(context.Background())
	require.Error(t, err)

	status := f.orch.Status()
	require.NotNil(t, status.Screening.LastResults)
	assert.Equal(t, contracts.ScreeningStatusError, status.Screening.LastResults.Status)
	assert.Equal(t, 0, status.Screening.LastResults.StocksSelected)
	assert.Equal(t, "yahoo timeout", status.Screening.LastResults.Error)
	assert.Nil(t, status.Screening.LastTime, "a failed run must not move last_time")
}

func TestNextScreeningTarget(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		wantTarget time.Time
		wantWait   time.Duration
	}{
		{
			name:       "later today",
			now:        time.Date(2025, 6, 17, 10, 0, 0, 0, market.KST),
			wantTarget: time.Date(2025, 6, 17, 23, 30, 0, 0, market.KST),
			wantWait:   13*time.Hour + 30*time.Minute,
		},
		{
			name:       "already passed rolls to tomorrow",
			now:        time.Date(2025, 6, 17, 23, 45, 0, 0, market.KST),
			wantTarget: time.Date(2025, 6, 18, 23, 30, 0, 0, market.KST),
			wantWait:   23*time.Hour + 45*time.Minute,
		},
		{
			name:       "exactly on the slot rolls to tomorrow",
			now:        time.Date(2025, 6, 17, 23, 30, 0, 0, market.KST),
			wantTarget: time.Date(2025, 6, 18, 23, 30, 0, 0, market.KST),
			wantWait:   24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, wait := nextScreeningTarget(tt.now, 23, 30)
			assert.True(t, target.Equal(tt.wantTarget), "target = %v, want %v", target, tt.wantTarget)
			assert.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestStatusSnapshot(t *testing.T) {
	f := newFixture(t, nil)

	status := f.orch.Status()
	assert.False(t, status.Running)
	assert.True(t, status.Enabled)
	assert.Equal(t, 1800, status.Scan.IntervalSeconds)
	assert.Nil(t, status.Scan.LastTime)
	assert.Equal(t, "23:30 KST", status.Screening.Schedule)
	assert.Nil(t, status.Screening.LastResults)
	assert.True(t, status.MarketStatus.IsOpen, "fixture clock is inside the session")
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, []string{"AAPL"})
	f.orch.now = func() time.Time { return closedTime }

	f.orch.Start(context.Background())
	assert.True(t, f.orch.Status().Running)

	// Second start is a no-op
	f.orch.Start(context.Background())

	f.orch.Stop()
	status := f.orch.Status()
	assert.False(t, status.Running)

	// The first pass ran before shutdown and saw a closed market
	skip, ok := status.Scan.LastResults.(contracts.SkippedScan)
	require.True(t, ok)
	assert.Equal(t, contracts.SkipReasonMarketClosed, skip.Reason)

	// Stop is idempotent
	f.orch.Stop()
}

func TestStartDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.cfg.Scanner.Enabled = false

	f.orch.Start(context.Background())

	status := f.orch.Status()
	assert.False(t, status.Running)
	assert.False(t, status.Enabled)

	f.orch.Stop()
}
