package paper

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/config"
)

// ExitRules decides when an open paper position must be closed.
// Checks run in priority order: stop loss, take profit, max holding.
// ⭐ SSOT: 청산 조건 판정은 여기서만
type ExitRules struct {
	stopLossPct    float64
	takeProfitPct  float64
	maxHoldingDays int

	stopLossReason   string
	takeProfitReason string
}

// NewExitRules creates exit rules from trading config
func NewExitRules(cfg *config.Config) *ExitRules {
	return &ExitRules{
		stopLossPct:    cfg.Trading.StopLossPct,
		takeProfitPct:  cfg.Trading.TakeProfitPct,
		maxHoldingDays: cfg.Trading.MaxHoldingDays,

		stopLossReason:   fmt.Sprintf("Stop Loss (-%.0f%%)", cfg.Trading.StopLossPct*100),
		takeProfitReason: fmt.Sprintf("Take Profit (+%.0f%%)", cfg.Trading.TakeProfitPct*100),
	}
}

// Evaluate checks one open position against the exit rules. The intraday
// low participates in the stop check so a stop hit during the session
// still closes the position even when the close recovered above it.
func (r *ExitRules) Evaluate(pos *contracts.Position, current, low float64, now time.Time) contracts.ExitDecision {
	entry := pos.EntryPrice

	stopLoss := pos.StopLoss
	if stopLoss <= 0 {
		stopLoss = entry * (1 - r.stopLossPct)
	}
	takeProfit := pos.TakeProfit
	if takeProfit <= 0 {
		takeProfit = entry * (1 + r.takeProfitPct)
	}

	holdingDays := pos.DaysHeld(now)
	_, profitPct := pos.PnLAt(current)

	checkPrice := current
	if low > 0 && low < current {
		checkPrice = low
	}

	if checkPrice <= stopLoss {
		_, lossPct := pos.PnLAt(checkPrice)
		return contracts.ExitDecision{
			Exit:        true,
			Reason:      r.stopLossReason,
			ProfitPct:   round2(lossPct),
			HoldingDays: holdingDays,
		}
	}

	if current >= takeProfit {
		return contracts.ExitDecision{
			Exit:        true,
			Reason:      r.takeProfitReason,
			ProfitPct:   round2(profitPct),
			HoldingDays: holdingDays,
		}
	}

	if holdingDays >= r.maxHoldingDays {
		return contracts.ExitDecision{
			Exit:        true,
			Reason:      fmt.Sprintf("Max Holding (%d days)", r.maxHoldingDays),
			ProfitPct:   round2(profitPct),
			HoldingDays: holdingDays,
		}
	}

	return contracts.ExitDecision{
		ProfitPct:   round2(profitPct),
		HoldingDays: holdingDays,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
