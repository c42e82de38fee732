package contracts

import "time"

// ScreeningModeDynamic marks a watchlist produced by the screener
const ScreeningModeDynamic = "dynamic"

// Watchlist is the dynamic watchlist document persisted as
// watchlist.json and consumed by the scan loop.
// ⭐ SSOT: 동적 워치리스트 포맷은 여기서만
type Watchlist struct {
	Tickers       []string          `json:"tickers"`
	UpdatedAt     time.Time         `json:"updated_at"`
	ScreeningMode string            `json:"screening_mode"`
	Criteria      ScreeningCriteria `json:"criteria"`
}

// ScreeningCriteria records the thresholds the screener applied
type ScreeningCriteria struct {
	MinMarketCapUSD float64 `json:"min_market_cap_usd"`
	MinAvgVolume    int64   `json:"min_avg_volume"`
	MinPriceUSD     float64 `json:"min_price_usd"`
}

// SectorGroup is a named sector of the fixed watchlist.
// Order matters for presentation, so the fixed watchlist is a slice
// of groups rather than a map.
type SectorGroup struct {
	Sector  string   `json:"sector"`
	Tickers []string `json:"tickers"`
}
