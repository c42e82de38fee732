package contracts

import "time"

// Position statuses
const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// Position is a paper trading position. Created by the scan path when a
// signal passes the capital and duplicate checks, closed by the position
// manager when an exit rule trips.
// ⭐ SSOT: 포지션 데이터 전달은 이 타입으로만
type Position struct {
	ID               int        `json:"id"`
	Ticker           string     `json:"ticker"`
	Market           string     `json:"market"`
	Source           string     `json:"source"`
	Pattern          string     `json:"pattern"`
	Status           string     `json:"status"`
	EntryDate        time.Time  `json:"entry_date"`
	EntryPrice       float64    `json:"entry_price"`
	Quantity         float64    `json:"quantity"`
	InvestmentAmount float64    `json:"investment_amount"`
	StopLoss         float64    `json:"stop_loss"`
	TakeProfit       float64    `json:"take_profit"`
	SignalData       SignalData `json:"signal_data"`

	// Populated on close. Nil while the position is open.
	ExitDate     *time.Time `json:"exit_date,omitempty"`
	ExitPrice    *float64   `json:"exit_price,omitempty"`
	ExitReason   *string    `json:"exit_reason,omitempty"`
	ProfitPct    *float64   `json:"profit_pct,omitempty"`
	ProfitAmount *float64   `json:"profit_amount,omitempty"`
	HoldingDays  *int       `json:"holding_days,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the position is still open
func (p *Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// DaysHeld returns full calendar days between entry and now
func (p *Position) DaysHeld(now time.Time) int {
	if p.EntryDate.IsZero() {
		return 0
	}
	return int(now.Sub(p.EntryDate).Hours() / 24)
}

// PnLAt computes unrealized profit at the given price.
// Returns (amount, percent vs entry).
func (p *Position) PnLAt(price float64) (float64, float64) {
	if p.EntryPrice <= 0 {
		return 0, 0
	}
	amount := (price - p.EntryPrice) * p.Quantity
	pct := (price - p.EntryPrice) / p.EntryPrice * 100
	return amount, pct
}

// ExitDecision is the outcome of evaluating exit rules against one
// open position.
type ExitDecision struct {
	Exit        bool    `json:"exit"`
	Reason      string  `json:"reason,omitempty"`
	ProfitPct   float64 `json:"profit_pct"`   // 트리거 가격 기준 손익률
	HoldingDays int     `json:"holding_days"` // 진입 후 보유 일수
}
