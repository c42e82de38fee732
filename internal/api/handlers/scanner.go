package handlers

import (
	"net/http"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// StatusSource exposes the scan orchestrator's status snapshot
type StatusSource interface {
	Status() contracts.ScannerStatus
}

// ScannerHandler serves scanner and market state
type ScannerHandler struct {
	scanner StatusSource
	logger  *logger.Logger
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(scanner StatusSource, log *logger.Logger) *ScannerHandler {
	return &ScannerHandler{scanner: scanner, logger: log}
}

// GetStatus returns the orchestrator status document
// GET /api/scanner/status
func (h *ScannerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scanner.Status())
}

// GetMarketStatus returns whether the US regular session is open now
// GET /api/market/status
func (h *ScannerHandler) GetMarketStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, market.Status(market.Now()))
}
