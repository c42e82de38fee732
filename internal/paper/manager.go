package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// Manager walks open positions and closes the ones whose exit rules
// tripped. Quote failures skip the position; it is rechecked next pass.
type Manager struct {
	positions contracts.PositionRepository
	provider  contracts.MarketDataProvider
	rules     *ExitRules
	logger    *logger.Logger
}

// NewManager creates a position manager
func NewManager(positions contracts.PositionRepository, provider contracts.MarketDataProvider, rules *ExitRules, log *logger.Logger) *Manager {
	return &Manager{
		positions: positions,
		provider:  provider,
		rules:     rules,
		logger:    log,
	}
}

// CheckResults summarizes one position check pass
type CheckResults struct {
	Checked int `json:"checked"`
	Closed  int `json:"closed"`
	Errors  int `json:"errors"`
}

// CheckPositions evaluates every open position against the exit rules.
// The recorded exit price is always the latest close, even for stops
// triggered by the intraday low.
func (m *Manager) CheckPositions(ctx context.Context) (CheckResults, error) {
	positions, err := m.positions.GetOpen(ctx)
	if err != nil {
		return CheckResults{}, fmt.Errorf("failed to load open positions: %w", err)
	}
	if len(positions) == 0 {
		m.logger.Info("No open positions")
		return CheckResults{}, nil
	}

	m.logger.Infof("Checking %d open positions", len(positions))

	results := CheckResults{Checked: len(positions)}
	now := time.Now()

	for _, pos := range positions {
		quote, err := m.provider.LatestQuote(ctx, pos.Ticker)
		if err != nil {
			m.logger.Warnf("Position check %s: quote fetch failed: %v", pos.Ticker, err)
			results.Errors++
			continue
		}

		decision := m.rules.Evaluate(pos, quote.Price, quote.Low, now)
		if !decision.Exit {
			m.logger.Debugf("Holding %s: %+.2f%% (%d days)",
				pos.Ticker, decision.ProfitPct, decision.HoldingDays)
			continue
		}

		err = m.positions.ClosePosition(ctx, pos.ID, quote.Price, decision.Reason, decision.ProfitPct, decision.HoldingDays)
		if err != nil {
			m.logger.Errorf("Failed to close %s: %v", pos.Ticker, err)
			results.Errors++
			continue
		}

		m.logger.Infof("Closed %s: %s (%+.2f%%, %d days)",
			pos.Ticker, decision.Reason, decision.ProfitPct, decision.HoldingDays)
		results.Closed++
	}

	m.logger.Infof("Position check done: %d checked, %d closed, %d errors",
		results.Checked, results.Closed, results.Errors)
	return results, nil
}
