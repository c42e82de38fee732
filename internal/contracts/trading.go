package contracts

// ClosedTradeStats is the aggregate over all closed positions,
// computed in a single SQL pass.
type ClosedTradeStats struct {
	TotalTrades int     `json:"total_trades"`
	WinCount    int     `json:"win_count"`
	LossCount   int     `json:"loss_count"`
	AvgProfit   float64 `json:"avg_profit"`
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	MaxProfit   float64 `json:"max_profit"`
	MaxLoss     float64 `json:"max_loss"`
	TotalProfit float64 `json:"total_profit"`
}

// WinRate returns the closed-trade win rate in percent
func (s *ClosedTradeStats) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinCount) / float64(s.TotalTrades) * 100
}

// MonthlyPerformance is one month's closed-trade summary,
// grouped by exit month.
type MonthlyPerformance struct {
	Month       string  `json:"month"` // YYYY-MM
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	TotalProfit float64 `json:"total_profit_pct"`
	AvgProfit   float64 `json:"avg_profit_pct"`
}
