package contracts

import "time"

// Bar represents one daily OHLCV bar
// ⭐ SSOT: 시세 데이터 전달은 이 타입으로만
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Bars is a chronologically ordered series of daily bars
type Bars []Bar

// Last returns the most recent bar
func (b Bars) Last() (Bar, bool) {
	if len(b) == 0 {
		return Bar{}, false
	}
	return b[len(b)-1], true
}

// Tail returns the most recent n bars (all bars if fewer exist)
func (b Bars) Tail(n int) Bars {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}

// Quote is the latest pricing snapshot for one instrument,
// derived from the most recent daily bar.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"` // 최근 종가
	Low       float64   `json:"low"`   // 당일 저가 (intraday stop 판정용)
	FetchedAt time.Time `json:"fetched_at"`
}

// StockProfile carries the fundamentals the screener filters on
type StockProfile struct {
	Ticker    string  `json:"ticker"`
	MarketCap float64 `json:"market_cap"`
	Price     float64 `json:"price"`
}
