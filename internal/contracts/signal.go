package contracts

import "time"

// Pattern names produced by the detector
const (
	PatternPivotBreakout = "Pivot Breakout"
)

// Signal source tags. Alerts and positions record which path produced them.
const (
	SourceBackgroundScanner = "background_scanner" // 상시 스캔 루프
	SourceFixed             = "fixed"              // CLI 고정 워치리스트 스캔
	SourceDynamic           = "dynamic"            // CLI 동적 워치리스트 스캔
)

// MarketUS is the only market this system scans.
const MarketUS = "US"

// Signal represents a detected pivot breakout for one ticker.
// All percentage and price fields are rounded to 2 decimal places
// at detection time.
// ⭐ SSOT: 시그널 데이터 전달은 이 타입으로만
type Signal struct {
	Ticker         string  `json:"ticker"`
	Pattern        string  `json:"pattern"`
	Price          float64 `json:"current_price"`    // 돌파 시점 종가
	Resistance     float64 `json:"resistance"`       // 피벗 저항선
	BreakoutPct    float64 `json:"breakout_pct"`     // 저항선 대비 돌파율 (%)
	VolumeSurgePct float64 `json:"volume_surge_pct"` // 평균 거래량 대비 증가율 (%)
}

// SignalData is the JSONB payload persisted alongside alerts and positions
type SignalData struct {
	Resistance     float64 `json:"resistance"`
	BreakoutPct    float64 `json:"breakout_pct"`
	VolumeSurgePct float64 `json:"volume_surge_pct"`
}

// Data extracts the persistable payload from a signal
func (s *Signal) Data() SignalData {
	return SignalData{
		Resistance:     s.Resistance,
		BreakoutPct:    s.BreakoutPct,
		VolumeSurgePct: s.VolumeSurgePct,
	}
}

// Alert is a persisted signal row. One row per
// (ticker, pattern, source, alert_date).
type Alert struct {
	ID         int        `json:"id"`
	Ticker     string     `json:"ticker"`
	Market     string     `json:"market"`
	Pattern    string     `json:"pattern"`
	Source     string     `json:"source"`
	AlertDate  time.Time  `json:"alert_date"`
	AlertPrice float64    `json:"alert_price"`
	SignalData SignalData `json:"signal_data"`
	SentAt     time.Time  `json:"sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
