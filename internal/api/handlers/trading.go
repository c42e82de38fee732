package handlers

import (
	"context"
	"math"
	"net/http"
	"sort"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// TradingHandler serves paper trading positions and performance
// ⭐ SSOT: 페이퍼 트레이딩 API 핸들러는 이 구조체에서만
type TradingHandler struct {
	positions contracts.PositionRepository
	provider  contracts.MarketDataProvider
	allocator *paper.Allocator
	logger    *logger.Logger
}

// NewTradingHandler creates a new paper trading handler
func NewTradingHandler(
	positions contracts.PositionRepository,
	provider contracts.MarketDataProvider,
	allocator *paper.Allocator,
	log *logger.Logger,
) *TradingHandler {
	return &TradingHandler{
		positions: positions,
		provider:  provider,
		allocator: allocator,
		logger:    log,
	}
}

// PositionView is one open position with live valuation
type PositionView struct {
	ID               int      `json:"id"`
	Ticker           string   `json:"ticker"`
	Market           string   `json:"market"`
	Source           string   `json:"source"`
	EntryPrice       float64  `json:"entry_price"`
	CurrentPrice     *float64 `json:"current_price"`
	Quantity         float64  `json:"quantity"`
	InvestmentAmount float64  `json:"investment_amount"`
	CurrentValue     float64  `json:"current_value"`
	PnLAmount        float64  `json:"pnl_amount"`
	PnLPct           *float64 `json:"pnl_pct"`
	EntryDate        string   `json:"entry_date"`
	Pattern          string   `json:"pattern"`
	StopLoss         *float64 `json:"stop_loss"`
	TakeProfit       *float64 `json:"take_profit"`
	HoldingDays      int      `json:"holding_days"`
}

// PositionsResponse is the open-positions document
type PositionsResponse struct {
	Count            int            `json:"count"`
	Winning          int            `json:"winning"`
	Losing           int            `json:"losing"`
	TotalInvested    float64        `json:"total_invested"`
	TotalValue       float64        `json:"total_value"`
	TotalPnLAmount   float64        `json:"total_pnl_amount"`
	TotalPnLPct      float64        `json:"total_pnl_pct"`
	AvailableCapital float64        `json:"available_capital"`
	Positions        []PositionView `json:"positions"`
}

// GetPositions returns open positions valued at live prices, best
// performers first. Positions without a reachable quote are carried at
// cost and excluded from the winner/loser counts.
// GET /api/paper-trading/positions
func (h *TradingHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	open, err := h.positions.GetOpen(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load open positions")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"positions": []PositionView{}, "count": 0, "total_pnl_pct": 0, "error": err.Error(),
		})
		return
	}

	if len(open) == 0 {
		respondJSON(w, http.StatusOK, PositionsResponse{
			Positions:        []PositionView{},
			AvailableCapital: h.allocator.InitialCapital(),
		})
		return
	}

	tickers := make([]string, 0, len(open))
	for _, p := range open {
		tickers = append(tickers, p.Ticker)
	}
	prices := h.currentPrices(ctx, tickers)

	now := market.Now()
	views := make([]PositionView, 0, len(open))
	var totalInvested, totalValue float64
	var winning, losing int

	for _, p := range open {
		quantity := p.Quantity
		investment := p.InvestmentAmount
		// 구버전 행은 투자금 기록이 없어 기본 슬라이스로 추정
		if investment == 0 {
			investment = h.allocator.DefaultSize()
			quantity = investment / p.EntryPrice
		}
		totalInvested += investment

		view := PositionView{
			ID:               p.ID,
			Ticker:           p.Ticker,
			Market:           p.Market,
			Source:           sourceOrDefault(p.Source),
			EntryPrice:       p.EntryPrice,
			Quantity:         round2(quantity),
			InvestmentAmount: round2(investment),
			EntryDate:        p.EntryDate.Format("2006-01-02"),
			Pattern:          p.Pattern,
			StopLoss:         nullableFloat(p.StopLoss),
			TakeProfit:       nullableFloat(p.TakeProfit),
			HoldingDays:      p.DaysHeld(now),
		}

		if price, ok := prices[p.Ticker]; ok {
			currentValue := quantity * price
			pnlPct := (price - p.EntryPrice) / p.EntryPrice * 100
			totalValue += currentValue

			rounded := round2(price)
			roundedPct := round2(pnlPct)
			view.CurrentPrice = &rounded
			view.CurrentValue = round2(currentValue)
			view.PnLAmount = round2(currentValue - investment)
			view.PnLPct = &roundedPct

			if pnlPct > 0 {
				winning++
			} else {
				losing++
			}
		} else {
			// 시세 조회 실패: 원가로 평가
			totalValue += investment
			view.CurrentValue = round2(investment)
		}

		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return pnlSortKey(views[i].PnLPct) > pnlSortKey(views[j].PnLPct)
	})

	totalPnL := totalValue - totalInvested
	var totalPnLPct float64
	if totalInvested > 0 {
		totalPnLPct = totalPnL / totalInvested * 100
	}

	respondJSON(w, http.StatusOK, PositionsResponse{
		Count:            len(views),
		Winning:          winning,
		Losing:           losing,
		TotalInvested:    round2(totalInvested),
		TotalValue:       round2(totalValue),
		TotalPnLAmount:   round2(totalPnL),
		TotalPnLPct:      round2(totalPnLPct),
		AvailableCapital: round2(h.allocator.InitialCapital() - totalInvested),
		Positions:        views,
	})
}

// TradeView is one closed trade
type TradeView struct {
	ID          int      `json:"id"`
	Ticker      string   `json:"ticker"`
	Market      string   `json:"market"`
	Source      string   `json:"source"`
	EntryPrice  float64  `json:"entry_price"`
	EntryDate   string   `json:"entry_date"`
	ExitPrice   *float64 `json:"exit_price"`
	ExitDate    *string  `json:"exit_date"`
	Pattern     string   `json:"pattern"`
	ExitReason  *string  `json:"exit_reason"`
	ProfitPct   float64  `json:"profit_pct"`
	HoldingDays int      `json:"holding_days"`
}

// GetClosed returns the trade history, most recent exit first
// GET /api/paper-trading/closed?limit=50
func (h *TradingHandler) GetClosed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 50)

	closed, err := h.positions.GetClosed(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load closed positions")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"trades": []TradeView{}, "count": 0, "error": err.Error(),
		})
		return
	}

	trades := make([]TradeView, 0, len(closed))
	for _, p := range closed {
		view := TradeView{
			ID:         p.ID,
			Ticker:     p.Ticker,
			Market:     p.Market,
			Source:     sourceOrDefault(p.Source),
			EntryPrice: p.EntryPrice,
			EntryDate:  p.EntryDate.Format("2006-01-02"),
			ExitPrice:  p.ExitPrice,
			Pattern:    p.Pattern,
			ExitReason: p.ExitReason,
		}
		if p.ExitDate != nil {
			formatted := p.ExitDate.Format("2006-01-02")
			view.ExitDate = &formatted
		}
		if p.ProfitPct != nil {
			view.ProfitPct = *p.ProfitPct
		}
		switch {
		case p.HoldingDays != nil:
			view.HoldingDays = *p.HoldingDays
		case p.ExitDate != nil:
			view.HoldingDays = int(p.ExitDate.Sub(p.EntryDate).Hours() / 24)
		}
		trades = append(trades, view)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(trades),
		"trades": trades,
	})
}

// TradingStatsResponse is the performance summary document
type TradingStatsResponse struct {
	StartDate   *string `json:"start_date"`
	TradingDays *int    `json:"trading_days"`

	OpenPositions int     `json:"open_positions"`
	OpenWinning   int     `json:"open_winning"`
	OpenLosing    int     `json:"open_losing"`
	OpenPnLPct    float64 `json:"open_pnl_pct"`
	OpenAvgPnLPct float64 `json:"open_avg_pnl_pct"`

	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgProfitPct   float64 `json:"avg_profit_pct"`
	AvgWinPct      float64 `json:"avg_win_pct"`
	AvgLossPct     float64 `json:"avg_loss_pct"`
	MaxProfitPct   float64 `json:"max_profit_pct"`
	MaxLossPct     float64 `json:"max_loss_pct"`
	TotalProfitPct float64 `json:"total_profit_pct"`
}

// GetStats returns closed-trade statistics plus the unrealized P&L of
// open positions
// GET /api/paper-trading/stats
func (h *TradingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	startDate, err := h.positions.GetStartDate(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load trading start date")
		respondJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	closedStats, err := h.positions.GetClosedStats(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load closed trade stats")
		respondJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	open, err := h.positions.GetOpen(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load open positions")
		respondJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	var openPnL float64
	var openWinning, openLosing int
	if len(open) > 0 {
		tickers := make([]string, 0, len(open))
		for _, p := range open {
			tickers = append(tickers, p.Ticker)
		}
		prices := h.currentPrices(ctx, tickers)

		for _, p := range open {
			price, ok := prices[p.Ticker]
			if !ok {
				continue
			}
			_, pct := p.PnLAt(price)
			openPnL += pct
			if pct > 0 {
				openWinning++
			} else {
				openLosing++
			}
		}
	}

	resp := TradingStatsResponse{
		OpenPositions:  len(open),
		OpenWinning:    openWinning,
		OpenLosing:     openLosing,
		OpenPnLPct:     round2(openPnL),
		TotalTrades:    closedStats.TotalTrades,
		WinningTrades:  closedStats.WinCount,
		LosingTrades:   closedStats.LossCount,
		WinRate:        round2(closedStats.WinRate()),
		AvgProfitPct:   round2(closedStats.AvgProfit),
		AvgWinPct:      round2(closedStats.AvgWin),
		AvgLossPct:     round2(closedStats.AvgLoss),
		MaxProfitPct:   round2(closedStats.MaxProfit),
		MaxLossPct:     round2(closedStats.MaxLoss),
		TotalProfitPct: round2(closedStats.TotalProfit),
	}
	if len(open) > 0 {
		resp.OpenAvgPnLPct = round2(openPnL / float64(len(open)))
	}
	if startDate != nil {
		formatted := startDate.Format("2006-01-02")
		days := int(market.Now().Sub(*startDate).Hours() / 24)
		resp.StartDate = &formatted
		resp.TradingDays = &days
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetMonthly returns the last 12 months of closed trades grouped by
// exit month
// GET /api/paper-trading/monthly
func (h *TradingHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	months, err := h.positions.GetMonthly(ctx, 12)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load monthly performance")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"monthly": []contracts.MonthlyPerformance{}, "error": err.Error(),
		})
		return
	}
	if months == nil {
		months = []contracts.MonthlyPerformance{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(months),
		"monthly": months,
	})
}

// currentPrices fetches the latest quote per ticker. Unreachable
// tickers are simply absent from the result.
func (h *TradingHandler) currentPrices(ctx context.Context, tickers []string) map[string]float64 {
	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		quote, err := h.provider.LatestQuote(ctx, t)
		if err != nil {
			h.logger.WithError(err).WithField("ticker", t).Debug("Could not fetch current price")
			continue
		}
		prices[t] = quote.Price
	}
	return prices
}

func sourceOrDefault(source string) string {
	if source == "" {
		return "dynamic"
	}
	return source
}

func nullableFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func pnlSortKey(pct *float64) float64 {
	if pct == nil {
		return -999
	}
	return *pct
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
