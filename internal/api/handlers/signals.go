package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// SignalsHandler serves persisted breakout signals
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalsHandler struct {
	alerts contracts.AlertRepository
	logger *logger.Logger
}

// NewSignalsHandler creates a new signals handler
func NewSignalsHandler(alerts contracts.AlertRepository, log *logger.Logger) *SignalsHandler {
	return &SignalsHandler{alerts: alerts, logger: log}
}

// SignalView is one alert row shaped for the frontend
type SignalView struct {
	Ticker         string  `json:"ticker"`
	Market         string  `json:"market"`
	Pattern        string  `json:"pattern"`
	Source         string  `json:"source"`
	Date           string  `json:"date,omitempty"`
	Price          float64 `json:"price"`
	Time           string  `json:"time"`
	VolumeSurgePct float64 `json:"volume_surge"`
	BreakoutPct    float64 `json:"breakout_pct"`
	Resistance     float64 `json:"resistance,omitempty"`
}

// GetToday returns today's signals, newest first. last_scan falls back
// to the most recent signal ever when today is empty.
// GET /api/signals/today
func (h *SignalsHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alerts, err := h.alerts.GetToday(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load today's signals")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"signals": []SignalView{}, "count": 0, "last_scan": nil, "error": err.Error(),
		})
		return
	}

	signals := make([]SignalView, 0, len(alerts))
	var lastScan *time.Time
	for _, a := range alerts {
		sentAt := a.SentAt
		if lastScan == nil || sentAt.After(*lastScan) {
			lastScan = &sentAt
		}
		signals = append(signals, SignalView{
			Ticker:         a.Ticker,
			Market:         a.Market,
			Pattern:        a.Pattern,
			Source:         a.Source,
			Price:          a.AlertPrice,
			Time:           a.SentAt.In(market.KST).Format("15:04:05"),
			VolumeSurgePct: a.SignalData.VolumeSurgePct,
			BreakoutPct:    a.SignalData.BreakoutPct,
			Resistance:     a.SignalData.Resistance,
		})
	}

	if lastScan == nil {
		lastScan, err = h.alerts.LatestSentAt(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load last scan time")
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"signals": []SignalView{}, "count": 0, "last_scan": nil, "error": err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":      market.Now().Format("2006-01-02"),
		"count":     len(signals),
		"signals":   signals,
		"last_scan": lastScan,
	})
}

// GetRecent returns signals from the past N days, excluding today
// GET /api/signals/recent?days=7
func (h *SignalsHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := queryInt(r, "days", 7)

	alerts, err := h.alerts.GetRecent(ctx, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recent signals")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"signals": []SignalView{}, "count": 0, "error": err.Error(),
		})
		return
	}

	signals := make([]SignalView, 0, len(alerts))
	for _, a := range alerts {
		signals = append(signals, SignalView{
			Ticker:         a.Ticker,
			Market:         a.Market,
			Pattern:        a.Pattern,
			Source:         a.Source,
			Date:           a.AlertDate.Format("2006-01-02"),
			Price:          a.AlertPrice,
			Time:           a.SentAt.In(market.KST).Format("15:04:05"),
			VolumeSurgePct: a.SignalData.VolumeSurgePct,
			BreakoutPct:    a.SignalData.BreakoutPct,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"count":   len(signals),
		"signals": signals,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// queryInt reads an integer query parameter, falling back to def on
// absent or malformed values
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
