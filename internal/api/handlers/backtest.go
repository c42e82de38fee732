package handlers

import (
	"net/http"

	"github.com/wonny/breakout/backend/internal/backtest"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// BacktestHandler serves the historical backtest export
type BacktestHandler struct {
	store  *backtest.Store
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(store *backtest.Store, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{store: store, logger: log}
}

// GetResults returns backtest trades filtered by pattern and ticker,
// newest entry first. total counts matches before the limit.
// GET /api/backtest/results?pattern=&ticker=&limit=100
func (h *BacktestHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(r, "limit", 100)

	trades, total, err := h.store.Query(q.Get("pattern"), q.Get("ticker"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load backtest results")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"total": 0, "results": []backtest.Trade{}, "error": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"results": trades,
	})
}

// GetStats returns aggregate backtest performance
// GET /api/backtest/stats
func (h *BacktestHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute backtest stats")
		respondJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	if stats == nil {
		respondJSON(w, http.StatusOK, map[string]string{"error": "No backtest results found"})
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetPatterns returns the pattern catalog the backtests cover
// GET /api/backtest/patterns
func (h *BacktestHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"patterns": []map[string]string{
			{
				"name":               "컵앤핸들",
				"description":        "Cup-and-Handle 패턴. 컵 깊이 12-40%, 핸들 깊이 12% 미만",
				"volume_requirement": "거래량 급증 필요",
			},
			{
				"name":               "피벗돌파",
				"description":        "Pivot Point Breakout. 20일 저항선 돌파",
				"volume_requirement": "거래량 50% 이상 급증",
			},
			{
				"name":               "베이스돌파",
				"description":        "Base Breakout. 30일 저변동성 베이스 형성 후 돌파",
				"volume_requirement": "거래량 40% 이상 급증",
			},
		},
	})
}
