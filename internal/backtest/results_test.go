package backtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

const resultsHeader = "ticker,market,pattern,entry_date,entry_price,exit_date,exit_price,shares,cost,proceeds,profit,profit_pct,holding_days,reason\n"

func testStore(t *testing.T, csv string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "us_backtest_results.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	log := logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
	return NewStoreAt(path, log)
}

func TestLoadMissingFile(t *testing.T) {
	log := logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
	store := NewStoreAt(filepath.Join(t.TempDir(), "nope.csv"), log)

	trades, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestLoadParsesExport(t *testing.T) {
	// 스프레드시트 내보내기 그대로: BOM + 날짜에 시간 성분 + 빈 숫자 칸
	csv := "\xef\xbb\xbf" + resultsHeader +
		"AAPL,US,피벗돌파,2024-03-01 00:00:00,185.50,2024-03-20 00:00:00,199.10,12.0,2226,2389.2,163.2,7.33,19,take_profit\n" +
		"MSFT,US,컵앤핸들,2024-02-15,410.00,,,,,,,,,\n"

	trades, err := testStore(t, csv).Load()
	require.NoError(t, err)
	require.Len(t, trades, 2)

	first := trades[0]
	assert.Equal(t, "AAPL", first.Ticker)
	assert.Equal(t, "피벗돌파", first.Pattern)
	assert.Equal(t, "2024-03-01", first.EntryDate)
	assert.Equal(t, "2024-03-20", first.ExitDate)
	assert.Equal(t, 185.50, first.EntryPrice)
	assert.Equal(t, 12, first.Shares)
	assert.Equal(t, 7.33, first.ProfitPct)
	assert.Equal(t, 19, first.HoldingDays)
	assert.Equal(t, "take_profit", first.Reason)

	second := trades[1]
	assert.Equal(t, "MSFT", second.Ticker)
	assert.Equal(t, "2024-02-15", second.EntryDate)
	assert.Equal(t, "", second.ExitDate)
	assert.Zero(t, second.ExitPrice)
	assert.Zero(t, second.Shares)
	assert.Zero(t, second.Profit)
}

func queryFixture(t *testing.T) *Store {
	t.Helper()
	csv := resultsHeader +
		"AAPL,US,피벗돌파,2024-03-01,180,2024-03-10,190,10,1800,1900,100,5.56,9,take_profit\n" +
		"MSFT,US,컵앤핸들,2024-03-05,400,2024-03-15,380,5,2000,1900,-100,-5.0,10,stop_loss\n" +
		"AAPL,US,피벗돌파,2024-01-10,170,2024-01-25,175,10,1700,1750,50,2.94,15,trailing_stop\n" +
		"NVDA,US,피벗돌파,2024-02-15,700,2024-03-01,770,3,2100,2310,210,10.0,15,take_profit\n"
	return testStore(t, csv)
}

func TestQueryFiltersAndSorts(t *testing.T) {
	store := queryFixture(t)

	trades, total, err := store.Query("피벗돌파", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, trades, 3)
	assert.Equal(t, "2024-03-01", trades[0].EntryDate)
	assert.Equal(t, "2024-02-15", trades[1].EntryDate)
	assert.Equal(t, "2024-01-10", trades[2].EntryDate)

	trades, total, err = store.Query("", "aapl", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, trades, 2)
	assert.Equal(t, "2024-03-01", trades[0].EntryDate)

	trades, total, err = store.Query("없는패턴", "", 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, trades)
}

func TestQueryLimitKeepsTotal(t *testing.T) {
	trades, total, err := queryFixture(t).Query("피벗돌파", "", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, trades, 2)
	assert.Equal(t, "2024-03-01", trades[0].EntryDate)
	assert.Equal(t, "2024-02-15", trades[1].EntryDate)
}

func TestStats(t *testing.T) {
	csv := resultsHeader +
		"AAPL,US,피벗돌파,2024-01-05,180,2024-01-20,198,10,1800,1980,100,10.0,15,take_profit\n" +
		"MSFT,US,컵앤핸들,2024-02-01,400,2024-02-10,380,5,2000,1900,-50,-5.0,9,stop_loss\n" +
		"NVDA,US,피벗돌파,2023-12-28,700,2024-01-15,840,3,2100,2520,200,20.0,18,take_profit\n"

	stats, err := testStore(t, csv).Stats()
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 3, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
	assert.Equal(t, 66.67, stats.WinRate)
	assert.Equal(t, 250.0, stats.TotalProfit)
	assert.Equal(t, 8.33, stats.AvgProfitPct)
	assert.Equal(t, 15.0, stats.AvgWinPct)
	assert.Equal(t, -5.0, stats.AvgLossPct)
	assert.Equal(t, 20.0, stats.MaxProfitPct)
	assert.Equal(t, -5.0, stats.MaxLossPct)

	pivot := stats.PatternStats["피벗돌파"]
	assert.Equal(t, 2, pivot.Total)
	assert.Equal(t, 2, pivot.Wins)
	assert.Zero(t, pivot.Losses)
	assert.Equal(t, 100.0, pivot.WinRate)
	assert.Equal(t, 15.0, pivot.AvgProfitPct)

	cup := stats.PatternStats["컵앤핸들"]
	assert.Equal(t, 1, cup.Total)
	assert.Equal(t, 1, cup.Losses)
	assert.Zero(t, cup.WinRate)

	takeProfit := stats.ReasonStats["take_profit"]
	assert.Equal(t, 2, takeProfit.Count)
	assert.Equal(t, 15.0, takeProfit.AvgProfitPct)

	require.NotNil(t, stats.StartDate)
	require.NotNil(t, stats.EndDate)
	assert.Equal(t, "2023-12-28", *stats.StartDate)
	assert.Equal(t, "2024-02-10", *stats.EndDate)
}

func TestStatsPatternRatesStayUnrounded(t *testing.T) {
	csv := resultsHeader +
		"AAPL,US,피벗돌파,2024-01-05,180,2024-01-20,198,10,1800,1980,100,10.0,15,take_profit\n" +
		"MSFT,US,피벗돌파,2024-02-01,400,2024-02-10,380,5,2000,1900,-50,-5.0,9,stop_loss\n" +
		"NVDA,US,피벗돌파,2024-02-20,700,2024-03-01,686,3,2100,2058,-42,-2.0,10,stop_loss\n"

	stats, err := testStore(t, csv).Stats()
	require.NoError(t, err)
	require.NotNil(t, stats)

	// 상위 지표만 반올림, 패턴별 지표는 원본 유지
	assert.Equal(t, 33.33, stats.WinRate)
	pivot := stats.PatternStats["피벗돌파"]
	assert.InDelta(t, 100.0/3.0, pivot.WinRate, 1e-9)
	assert.InDelta(t, 1.0, pivot.AvgProfitPct, 1e-9)
}

func TestStatsEmpty(t *testing.T) {
	stats, err := testStore(t, resultsHeader).Stats()
	require.NoError(t, err)
	assert.Nil(t, stats)
}
