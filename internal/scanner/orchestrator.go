package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// pingTimeout bounds the DB reachability probe before each scan pass
const pingTimeout = 5 * time.Second

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchlistSource yields the combined scan universe (fixed + dynamic)
type WatchlistSource interface {
	Combined() []string
}

// Orchestrator runs the two background loops of the system: the
// periodic breakout scan and the nightly dynamic screening.
// ⭐ SSOT: 백그라운드 스캔/스크리닝 조율은 여기서만
type Orchestrator struct {
	cfg    *config.Config
	logger *logger.Logger

	db        Pinger
	watchlist WatchlistSource
	detector  contracts.PatternDetector
	provider  contracts.MarketDataProvider
	alerts    contracts.AlertRepository
	positions contracts.PositionRepository
	screener  contracts.UniverseScreener
	feed      contracts.SignalPublisher

	status *tracker
	now    func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an orchestrator. The feed may be nil when no live
// subscribers exist (headless scanner runs).
func New(
	cfg *config.Config,
	log *logger.Logger,
	db Pinger,
	watchlist WatchlistSource,
	detector contracts.PatternDetector,
	provider contracts.MarketDataProvider,
	alerts contracts.AlertRepository,
	positions contracts.PositionRepository,
	screener contracts.UniverseScreener,
	feed contracts.SignalPublisher,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		logger:    log,
		db:        db,
		watchlist: watchlist,
		detector:  detector,
		provider:  provider,
		alerts:    alerts,
		positions: positions,
		screener:  screener,
		feed:      feed,
		status:    newTracker(),
		now:       market.Now,
	}
}

// Start launches the scan loop and the screening scheduler. A disabled
// or already-running scanner is logged and left alone, never an error.
func (o *Orchestrator) Start(ctx context.Context) {
	if !o.cfg.Scanner.Enabled {
		o.logger.Info("Background scanner is disabled (SCANNER_ENABLED=false)")
		return
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		o.logger.Warn("Scanner already running")
		return
	}
	o.running = true
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.mu.Unlock()

	o.status.setRunning(true)

	o.wg.Add(2)
	go o.scanLoop(runCtx)
	go o.screeningLoop(runCtx)

	o.logger.Info("Background scanner and screening scheduler started")
}

// Stop cancels both loops and waits for in-flight work to drain
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.mu.Unlock()

	cancel()
	o.wg.Wait()
	o.status.setRunning(false)
	o.logger.Info("Background scanner and screening scheduler stopped")
}

// scanLoop runs a pass immediately, then every ScanInterval
func (o *Orchestrator) scanLoop(ctx context.Context) {
	defer o.wg.Done()

	o.logger.Infof("Background scanner loop started (interval: %ds)",
		int(o.cfg.Scanner.ScanInterval.Seconds()))

	for {
		o.runScan(ctx)
		if ctx.Err() != nil {
			return
		}

		o.logger.Infof("Next scan in %d minutes...",
			int(o.cfg.Scanner.ScanInterval.Minutes()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.Scanner.ScanInterval):
		}
	}
}

// runScan executes a single scan pass over the combined watchlist.
// Closed market and unreachable DB record a skipped pass; per-ticker
// failures are counted and never abort the pass.
func (o *Orchestrator) runScan(ctx context.Context) {
	now := o.now()
	status := market.Status(now)
	tickers := o.watchlist.Combined()

	o.logger.Info(market.FormatStatusMessage(status, len(tickers)))

	if !status.IsOpen {
		o.logger.Info("Market closed, skipping scan")
		o.status.recordSkippedScan(contracts.SkipReasonMarketClosed, now)
		return
	}

	o.logger.Infof("Starting scan at %s", status.Time)

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	err := o.db.Ping(pingCtx)
	cancelPing()
	if err != nil {
		o.logger.WithError(err).Error("Cannot connect to database, aborting scan")
		o.status.recordSkippedScan(contracts.SkipReasonDBConnectionFailed, o.now())
		return
	}

	if len(tickers) == 0 {
		o.logger.Warn("No tickers in watchlist")
		return
	}

	o.logger.Infof("Scanning %d stocks...", len(tickers))

	var results contracts.ScanResults
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return
		}

		// 분석 전에 중복 확인 (API 호출 절약)
		exists, err := o.alerts.ExistsToday(ctx, ticker,
			contracts.PatternPivotBreakout, contracts.SourceBackgroundScanner)
		if err != nil {
			results.Errors++
			o.logger.WithError(err).Errorf("Error scanning %s", ticker)
			continue
		}
		if exists {
			results.Skipped++
			continue
		}

		signal, err := o.analyze(ctx, ticker)
		if err != nil {
			results.Errors++
			o.logger.WithError(err).Errorf("Error scanning %s", ticker)
			continue
		}
		results.Scanned++

		if signal != nil {
			o.handleSignal(ctx, signal, &results)
		}

		// 시세 API 레이트 리밋 보호
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.Scanner.DelayPerStock):
		}
	}

	results.Time = o.now()
	if total, err := o.alerts.CountToday(ctx); err == nil {
		results.TodayTotal = total
	}
	o.status.recordScan(results)

	o.logger.Infof("Scan complete: %d scanned, %d skipped, %d signals found, %d errors",
		results.Scanned, results.Skipped, results.Signals, results.Errors)
}

// analyze fetches three months of daily bars and runs pattern detection
func (o *Orchestrator) analyze(ctx context.Context, ticker string) (*contracts.Signal, error) {
	bars, err := o.provider.DailyBars(ctx, ticker, contracts.RangeThreeMonths)
	if err != nil {
		return nil, err
	}
	return o.detector.Detect(ticker, bars), nil
}

// handleSignal persists a detected signal, opens a paper position for
// it, and pushes it to live subscribers. A duplicate save is silent.
func (o *Orchestrator) handleSignal(ctx context.Context, signal *contracts.Signal, results *contracts.ScanResults) {
	saved, err := o.alerts.Save(ctx, signal, contracts.SourceBackgroundScanner)
	if err != nil {
		results.Errors++
		o.logger.WithError(err).Errorf("Error saving signal for %s", signal.Ticker)
		return
	}
	if !saved {
		return
	}

	results.Signals++
	o.logger.Infof("SIGNAL: %s - %s @ $%.2f (+%.1f%%, Vol +%.0f%%)",
		signal.Ticker, signal.Pattern, signal.Price, signal.BreakoutPct, signal.VolumeSurgePct)

	o.openPosition(ctx, signal)
	o.publish(signal)
}

// openPosition applies the capital policy for a fresh signal. Skips
// (existing position, no capital) and failures never affect the pass.
func (o *Orchestrator) openPosition(ctx context.Context, signal *contracts.Signal) {
	pos, opened, err := o.positions.OpenFromSignal(ctx, signal, contracts.SourceBackgroundScanner)
	if err != nil {
		o.logger.WithError(err).Errorf("Failed to open position for %s", signal.Ticker)
		return
	}
	if !opened {
		o.logger.Debugf("No position opened for %s (existing position or no capital)", signal.Ticker)
		return
	}
	o.logger.Infof("Position opened: %s %.2f shares @ $%.2f ($%.0f invested)",
		pos.Ticker, pos.Quantity, pos.EntryPrice, pos.InvestmentAmount)
}

// publish mirrors the persisted row onto the live feed
func (o *Orchestrator) publish(signal *contracts.Signal) {
	if o.feed == nil {
		return
	}
	now := o.now()
	o.feed.Publish(&contracts.Alert{
		Ticker:     signal.Ticker,
		Market:     contracts.MarketUS,
		Pattern:    signal.Pattern,
		Source:     contracts.SourceBackgroundScanner,
		AlertDate:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		AlertPrice: signal.Price,
		SignalData: signal.Data(),
		SentAt:     now,
	})
}

// screeningLoop waits until the next scheduled KST time, then refreshes
// the dynamic watchlist. A failed run backs off before rescheduling;
// the previous watchlist stays in place.
func (o *Orchestrator) screeningLoop(ctx context.Context) {
	defer o.wg.Done()

	o.logger.Infof("Dynamic screening scheduler started (scheduled: %02d:%02d KST)",
		o.cfg.Scanner.ScreeningHour, o.cfg.Scanner.ScreeningMinute)

	for {
		target, wait := nextScreeningTarget(o.now(),
			o.cfg.Scanner.ScreeningHour, o.cfg.Scanner.ScreeningMinute)
		o.logger.Infof("Next dynamic screening at %s (in %.1f hours)",
			target.Format("2006-01-02 15:04:05"), wait.Hours())

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if ctx.Err() != nil {
			return
		}

		if err := o.runScreening(ctx); err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.cfg.Scanner.ScreeningBackoff):
			}
		}
	}
}

// runScreening executes one dynamic screening run and records its outcome
func (o *Orchestrator) runScreening(ctx context.Context) error {
	o.logger.Info("Starting dynamic stock screening...")

	tickers, err := o.screener.RunAndSave(ctx)
	if err != nil {
		o.logger.WithError(err).Error("Dynamic screening error")
		o.status.recordScreening(contracts.ScreeningResults{
			StocksSelected: 0,
			Time:           o.now(),
			Status:         contracts.ScreeningStatusError,
			Error:          err.Error(),
		})
		return err
	}

	o.status.recordScreening(contracts.ScreeningResults{
		StocksSelected: len(tickers),
		Time:           o.now(),
		Status:         contracts.ScreeningStatusSuccess,
	})
	o.logger.Infof("Dynamic screening complete: %d stocks selected", len(tickers))
	return nil
}

// nextScreeningTarget computes the next hour:minute occurrence after
// now, rolling to tomorrow when today's slot has passed. The wait is
// capped at 24 hours.
func nextScreeningTarget(now time.Time, hour, minute int) (time.Time, time.Duration) {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(target) {
		target = target.AddDate(0, 0, 1)
	}

	wait := target.Sub(now)
	if wait > 24*time.Hour {
		wait = 24 * time.Hour
	}
	return target, wait
}
