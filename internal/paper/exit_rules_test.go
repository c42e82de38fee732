package paper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/breakout/backend/internal/contracts"
)

var checkTime = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

func openPosition(entry float64, heldDays int) *contracts.Position {
	return &contracts.Position{
		ID:         1,
		Ticker:     "AAPL",
		Status:     contracts.PositionStatusOpen,
		EntryDate:  checkTime.AddDate(0, 0, -heldDays),
		EntryPrice: entry,
		Quantity:   200,
		StopLoss:   entry * 0.92,
		TakeProfit: entry * 1.20,
	}
}

func TestEvaluateStopLoss(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	d := rules.Evaluate(pos, 91, 91, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-8%)", d.Reason)
	assert.Equal(t, -9.0, d.ProfitPct)
	assert.Equal(t, 5, d.HoldingDays)
}

func TestEvaluateStopLossOnIntradayLow(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	// Close recovered above the stop but the low pierced it
	d := rules.Evaluate(pos, 95, 91, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-8%)", d.Reason)
	assert.Equal(t, -9.0, d.ProfitPct, "loss is measured at the trigger price")
}

func TestEvaluateStopBeatsTakeProfit(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	// Both rules trip in one bar; the stop wins
	d := rules.Evaluate(pos, 121, 91, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-8%)", d.Reason)
}

func TestEvaluateTakeProfit(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	d := rules.Evaluate(pos, 120, 115, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Take Profit (+20%)", d.Reason)
	assert.Equal(t, 20.0, d.ProfitPct)
}

func TestEvaluateMaxHolding(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 30)

	d := rules.Evaluate(pos, 105, 104, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Max Holding (30 days)", d.Reason)
	assert.Equal(t, 5.0, d.ProfitPct)
	assert.Equal(t, 30, d.HoldingDays)
}

func TestEvaluateHolding(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	d := rules.Evaluate(pos, 105, 103, checkTime)
	assert.False(t, d.Exit)
	assert.Empty(t, d.Reason)
	assert.Equal(t, 5.0, d.ProfitPct)
	assert.Equal(t, 5, d.HoldingDays)
}

func TestEvaluateBoundaries(t *testing.T) {
	rules := NewExitRules(testConfig())

	// Exactly at the stop closes
	d := rules.Evaluate(openPosition(100, 5), 92, 92, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-8%)", d.Reason)

	// Exactly at the target closes
	d = rules.Evaluate(openPosition(100, 5), 120, 119, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Take Profit (+20%)", d.Reason)

	// One day short of max holding stays open
	d = rules.Evaluate(openPosition(100, 29), 105, 104, checkTime)
	assert.False(t, d.Exit)
}

func TestEvaluateDefaultsWhenLevelsMissing(t *testing.T) {
	rules := NewExitRules(testConfig())

	pos := openPosition(100, 5)
	pos.StopLoss = 0
	pos.TakeProfit = 0

	// Defaults derived from entry price: stop 92, target 120
	d := rules.Evaluate(pos, 91.5, 91.5, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-8%)", d.Reason)

	pos = openPosition(100, 5)
	pos.StopLoss = 0
	pos.TakeProfit = 0
	d = rules.Evaluate(pos, 120.5, 118, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Take Profit (+20%)", d.Reason)
}

func TestEvaluateCustomThresholdReasons(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.StopLossPct = 0.12
	cfg.Trading.TakeProfitPct = 0.35
	cfg.Trading.MaxHoldingDays = 10
	rules := NewExitRules(cfg)

	// Fallback levels come from the custom percentages
	pos := openPosition(100, 5)
	pos.StopLoss = 0
	pos.TakeProfit = 0
	d := rules.Evaluate(pos, 87, 87, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Stop Loss (-12%)", d.Reason)

	pos = openPosition(100, 5)
	pos.StopLoss = 0
	pos.TakeProfit = 0
	d = rules.Evaluate(pos, 135, 130, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Take Profit (+35%)", d.Reason)

	d = rules.Evaluate(openPosition(100, 10), 101, 100, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, "Max Holding (10 days)", d.Reason)
}

func TestEvaluateMissingLowUsesClose(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(100, 5)

	d := rules.Evaluate(pos, 91, 0, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, -9.0, d.ProfitPct)
}

func TestEvaluateRoundsProfitPct(t *testing.T) {
	rules := NewExitRules(testConfig())
	pos := openPosition(97, 5)

	// (89-97)/97*100 = -8.2474...
	d := rules.Evaluate(pos, 89, 89, checkTime)
	assert.True(t, d.Exit)
	assert.Equal(t, -8.25, d.ProfitPct)
}
