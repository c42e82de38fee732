package contracts

import "context"

// Bar ranges understood by every MarketDataProvider implementation
const (
	RangeThreeMonths = "3mo"
	RangeFiveDays    = "5d"
)

// MarketDataProvider supplies daily bars, quotes, and company profiles
// ⭐ SSOT: 시세 데이터 공급 인터페이스
type MarketDataProvider interface {
	// DailyBars returns daily OHLCV bars for the given range ("3mo", "5d")
	DailyBars(ctx context.Context, ticker string, rng string) (Bars, error)

	// LatestQuote returns the latest close and intraday low
	LatestQuote(ctx context.Context, ticker string) (*Quote, error)

	// Profile returns market cap and current price
	Profile(ctx context.Context, ticker string) (*StockProfile, error)
}

// PatternDetector evaluates a bar series for an entry pattern
// ⭐ SSOT: 패턴 감지 인터페이스
type PatternDetector interface {
	// Detect returns a signal, or nil when the series does not qualify
	Detect(ticker string, bars Bars) *Signal
}

// UniverseScreener re-selects the dynamic watchlist and persists it
// ⭐ SSOT: 동적 스크리닝 인터페이스
type UniverseScreener interface {
	RunAndSave(ctx context.Context) ([]string, error)
}

// SignalPublisher fans persisted alerts out to live subscribers
type SignalPublisher interface {
	Publish(alert *Alert)
}
