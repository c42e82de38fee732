package contracts

import "time"

// Skip reasons recorded when a scan pass does no detection work
const (
	SkipReasonMarketClosed       = "market_closed"
	SkipReasonDBConnectionFailed = "db_connection_failed"
)

// Screening statuses
const (
	ScreeningStatusSuccess = "success"
	ScreeningStatusError   = "error"
)

// ScanResults summarizes one completed scan pass
// ⭐ SSOT: 스캔 결과 전달은 이 타입으로만
type ScanResults struct {
	Scanned    int       `json:"scanned"`
	Skipped    int       `json:"skipped"` // 당일 중복으로 건너뛴 종목 수
	Signals    int       `json:"signals"`
	Errors     int       `json:"errors"`
	Time       time.Time `json:"time"`
	TodayTotal int       `json:"today_total"` // 오늘 누적 시그널 수
}

// SkippedScan records a pass that ran no detection work at all
type SkippedScan struct {
	Skipped bool      `json:"skipped"`
	Reason  string    `json:"reason"`
	Time    time.Time `json:"time"`
}

// ScreeningResults summarizes one dynamic screening run
type ScreeningResults struct {
	StocksSelected int       `json:"stocks_selected"`
	Time           time.Time `json:"time"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
}

// ScanLoopStatus is the scan section of the scanner status document
type ScanLoopStatus struct {
	LastTime        *time.Time  `json:"last_time"`
	LastResults     interface{} `json:"last_results"` // ScanResults 또는 SkippedScan
	IntervalSeconds int         `json:"interval_seconds"`
}

// ScreeningLoopStatus is the screening section of the scanner status document
type ScreeningLoopStatus struct {
	Schedule    string            `json:"schedule"` // "23:30 KST"
	LastTime    *time.Time        `json:"last_time"`
	LastResults *ScreeningResults `json:"last_results"`
}

// ScannerStatus is the full status document served for health checks
type ScannerStatus struct {
	Running      bool                `json:"running"`
	Enabled      bool                `json:"enabled"`
	Scan         ScanLoopStatus      `json:"scan"`
	Screening    ScreeningLoopStatus `json:"screening"`
	MarketStatus MarketStatus        `json:"market_status"`
}
