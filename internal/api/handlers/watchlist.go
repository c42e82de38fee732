package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// WatchlistHandler serves the fixed and dynamic watchlists
// ⭐ SSOT: 워치리스트 API 핸들러는 이 구조체에서만
type WatchlistHandler struct {
	store  *watchlist.Store
	logger *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(store *watchlist.Store, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{store: store, logger: log}
}

// GetWatchlist returns both watchlists: the fixed sector groups and the
// dynamic screening result with fixed tickers removed
// GET /api/watchlist
func (h *WatchlistHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	fixed := watchlist.Fixed()
	fixedSet := make(map[string]bool, len(fixed))
	for _, t := range fixed {
		fixedSet[t] = true
	}

	var dynamicTickers []string
	var updatedAt interface{}
	doc, err := h.store.Load()
	if err != nil {
		h.logger.WithError(err).Warn("Could not load dynamic watchlist")
	}
	if doc != nil {
		dynamicTickers = doc.Tickers
		updatedAt = doc.UpdatedAt
	}

	dynamicOnly := make([]string, 0, len(dynamicTickers))
	union := make(map[string]bool, len(fixed)+len(dynamicTickers))
	for _, t := range fixed {
		union[t] = true
	}
	for _, t := range dynamicTickers {
		union[t] = true
		if !fixedSet[t] {
			dynamicOnly = append(dynamicOnly, t)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fixed": map[string]interface{}{
			"total":       len(fixed),
			"by_sector":   sectorMap(),
			"all":         sortedUnique(fixed),
			"source":      "oneil",
			"label":       "고정",
			"description": "S&P 500 시총 상위 50개 고정 종목",
		},
		"dynamic": map[string]interface{}{
			"total":       len(dynamicOnly),
			"all":         dynamicOnly,
			"source":      "dynamic",
			"label":       "동적",
			"description": "S&P 500 + NASDAQ 100 동적 스크리닝 (고정 제외)",
			"updated_at":  updatedAt,
		},
		"total": len(union),
	})
}

// GetFixed returns the fixed watchlist grouped by sector
// GET /api/watchlist/fixed
func (h *WatchlistHandler) GetFixed(w http.ResponseWriter, r *http.Request) {
	fixed := watchlist.Fixed()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(fixed),
		"by_sector": sectorMap(),
		"all":       sortedUnique(fixed),
	})
}

// GetDynamic returns the raw dynamic watchlist document
// GET /api/watchlist/dynamic
func (h *WatchlistHandler) GetDynamic(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		h.logger.WithError(err).Warn("Could not load dynamic watchlist")
	}
	if doc == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"total": 0,
			"all":   []string{},
			"error": "Dynamic watchlist not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":          len(doc.Tickers),
		"all":            doc.Tickers,
		"updated_at":     doc.UpdatedAt,
		"screening_mode": doc.ScreeningMode,
	})
}

// GetSectors returns the fixed watchlist sector map
// GET /api/watchlist/sectors
func (h *WatchlistHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sectorMap())
}

// sectorMap converts the ordered sector groups into the JSON object
// shape the frontend consumes
func sectorMap() map[string][]string {
	m := make(map[string][]string)
	for _, g := range watchlist.FixedGroups() {
		m[g.Sector] = g.Tickers
	}
	return m
}

func sortedUnique(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
