package paper

import "github.com/wonny/breakout/backend/pkg/config"

// Allocator sizes new paper positions from a fixed capital base.
// ⭐ SSOT: 자본 배분 규칙은 여기서만
type Allocator struct {
	initialCapital  float64
	positionSizePct float64
	maxPositions    int
}

// NewAllocator creates an allocator from trading config
func NewAllocator(cfg *config.Config) *Allocator {
	return &Allocator{
		initialCapital:  cfg.Trading.InitialCapital,
		positionSizePct: cfg.Trading.PositionSizePct,
		maxPositions:    cfg.Trading.MaxPositions,
	}
}

// Available returns how much capital a new position may take, given the
// current open position count and total invested amount. Zero means no
// new position: the position cap is reached or the capital is spent.
func (a *Allocator) Available(openCount int, totalInvested float64) float64 {
	if openCount >= a.maxPositions {
		return 0
	}

	available := a.initialCapital - totalInvested
	size := a.DefaultSize()
	if available < size {
		size = available
	}
	if size <= 0 {
		return 0
	}
	return size
}

// InitialCapital returns the configured capital base
func (a *Allocator) InitialCapital() float64 {
	return a.initialCapital
}

// DefaultSize returns the standard slice for one new position.
// Also used to estimate the cost basis of legacy rows that predate
// the investment_amount column.
func (a *Allocator) DefaultSize() float64 {
	return a.initialCapital * a.positionSizePct
}
