package scanner

import (
	"fmt"
	"sync"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
)

// tracker guards the mutable scanner state served by /api/scanner/status.
// Completed passes record a timestamp and results; skipped passes record
// results only, so last_time always points at real work.
type tracker struct {
	mu sync.RWMutex

	running bool

	lastScanTime    *time.Time
	lastScanResults interface{} // ScanResults 또는 SkippedScan

	lastScreeningTime    *time.Time
	lastScreeningResults *contracts.ScreeningResults
}

func newTracker() *tracker {
	return &tracker{}
}

func (t *tracker) setRunning(running bool) {
	t.mu.Lock()
	t.running = running
	t.mu.Unlock()
}

func (t *tracker) recordScan(results contracts.ScanResults) {
	t.mu.Lock()
	at := results.Time
	t.lastScanTime = &at
	t.lastScanResults = results
	t.mu.Unlock()
}

func (t *tracker) recordSkippedScan(reason string, at time.Time) {
	t.mu.Lock()
	t.lastScanResults = contracts.SkippedScan{
		Skipped: true,
		Reason:  reason,
		Time:    at,
	}
	t.mu.Unlock()
}

func (t *tracker) recordScreening(results contracts.ScreeningResults) {
	t.mu.Lock()
	if results.Status == contracts.ScreeningStatusSuccess {
		at := results.Time
		t.lastScreeningTime = &at
	}
	t.lastScreeningResults = &results
	t.mu.Unlock()
}

// Status assembles the full status document for health checks
func (o *Orchestrator) Status() contracts.ScannerStatus {
	t := o.status
	t.mu.RLock()
	defer t.mu.RUnlock()

	return contracts.ScannerStatus{
		Running: t.running,
		Enabled: o.cfg.Scanner.Enabled,
		Scan: contracts.ScanLoopStatus{
			LastTime:        t.lastScanTime,
			LastResults:     t.lastScanResults,
			IntervalSeconds: int(o.cfg.Scanner.ScanInterval.Seconds()),
		},
		Screening: contracts.ScreeningLoopStatus{
			Schedule: fmt.Sprintf("%02d:%02d KST",
				o.cfg.Scanner.ScreeningHour, o.cfg.Scanner.ScreeningMinute),
			LastTime:    t.lastScreeningTime,
			LastResults: t.lastScreeningResults,
		},
		MarketStatus: market.Status(o.now()),
	}
}
