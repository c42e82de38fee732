package backtest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// Trade is one closed trade from the historical backtest export
type Trade struct {
	Ticker      string  `json:"ticker"`
	Market      string  `json:"market"`
	Pattern     string  `json:"pattern"`
	EntryDate   string  `json:"entry_date"` // YYYY-MM-DD
	EntryPrice  float64 `json:"entry_price"`
	ExitDate    string  `json:"exit_date"`
	ExitPrice   float64 `json:"exit_price"`
	Shares      int     `json:"shares"`
	Cost        float64 `json:"cost"`
	Proceeds    float64 `json:"proceeds"`
	Profit      float64 `json:"profit"`
	ProfitPct   float64 `json:"profit_pct"`
	HoldingDays int     `json:"holding_days"`
	Reason      string  `json:"reason"`
}

// PatternStats aggregates trades per detected pattern
type PatternStats struct {
	Total        int     `json:"total"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	AvgProfitPct float64 `json:"avg_profit_pct"`
}

// ReasonStats aggregates trades per exit reason
type ReasonStats struct {
	Count        int     `json:"count"`
	AvgProfitPct float64 `json:"avg_profit_pct"`
}

// Stats summarizes the whole backtest export
type Stats struct {
	TotalTrades   int                     `json:"total_trades"`
	WinningTrades int                     `json:"winning_trades"`
	LosingTrades  int                     `json:"losing_trades"`
	WinRate       float64                 `json:"win_rate"`
	TotalProfit   float64                 `json:"total_profit"`
	AvgProfitPct  float64                 `json:"avg_profit_pct"`
	AvgWinPct     float64                 `json:"avg_win_pct"`
	AvgLossPct    float64                 `json:"avg_loss_pct"`
	MaxProfitPct  float64                 `json:"max_profit_pct"`
	MaxLossPct    float64                 `json:"max_loss_pct"`
	PatternStats  map[string]PatternStats `json:"pattern_stats"`
	ReasonStats   map[string]ReasonStats  `json:"reason_stats"`
	StartDate     *string                 `json:"start_date"`
	EndDate       *string                 `json:"end_date"`
}

// Store reads the backtest results artifact produced by the research
// pipeline. The CSV is an external input; this package never writes it.
// ⭐ SSOT: 백테스트 결과 접근은 여기서만
type Store struct {
	path   string
	logger *logger.Logger
}

// NewStore creates a store at the configured results path
func NewStore(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{
		path:   cfg.BacktestResultsPath,
		logger: log,
	}
}

// NewStoreAt creates a store at an explicit path
func NewStoreAt(path string, log *logger.Logger) *Store {
	return &Store{path: path, logger: log}
}

// Load parses every trade from the CSV. A missing file yields an empty
// slice, not an error: the artifact is optional in most deployments.
func (s *Store) Load() ([]Trade, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Trade{}, nil
		}
		return nil, fmt.Errorf("failed to read backtest results: %w", err)
	}

	// 스프레드시트 내보내기가 UTF-8 BOM을 붙이는 경우가 있음
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse backtest results: %w", err)
	}
	if len(records) == 0 {
		return []Trade{}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	trades := make([]Trade, 0, len(records)-1)
	for _, row := range records[1:] {
		trades = append(trades, Trade{
			Ticker:      field(row, "ticker"),
			Market:      field(row, "market"),
			Pattern:     field(row, "pattern"),
			EntryDate:   datePart(field(row, "entry_date")),
			EntryPrice:  parseFloat(field(row, "entry_price")),
			ExitDate:    datePart(field(row, "exit_date")),
			ExitPrice:   parseFloat(field(row, "exit_price")),
			Shares:      parseInt(field(row, "shares")),
			Cost:        parseFloat(field(row, "cost")),
			Proceeds:    parseFloat(field(row, "proceeds")),
			Profit:      parseFloat(field(row, "profit")),
			ProfitPct:   parseFloat(field(row, "profit_pct")),
			HoldingDays: parseInt(field(row, "holding_days")),
			Reason:      field(row, "reason"),
		})
	}
	return trades, nil
}

// Query filters trades by pattern and ticker, sorts newest entry first,
// and truncates to limit. The returned total counts matches before
// truncation.
func (s *Store) Query(pattern, ticker string, limit int) ([]Trade, int, error) {
	trades, err := s.Load()
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]Trade, 0, len(trades))
	ticker = strings.ToUpper(ticker)
	for _, tr := range trades {
		if pattern != "" && tr.Pattern != pattern {
			continue
		}
		if ticker != "" && tr.Ticker != ticker {
			continue
		}
		filtered = append(filtered, tr)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].EntryDate > filtered[j].EntryDate
	})

	total := len(filtered)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

// Stats computes the aggregate performance document. No trades yields
// (nil, nil) so the handler can report the artifact as absent.
func (s *Store) Stats() (*Stats, error) {
	trades, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, nil
	}

	stats := &Stats{
		TotalTrades:  len(trades),
		PatternStats: make(map[string]PatternStats),
		ReasonStats:  make(map[string]ReasonStats),
		MaxProfitPct: trades[0].ProfitPct,
		MaxLossPct:   trades[0].ProfitPct,
	}

	var totalProfit, totalPct, winPct, lossPct float64
	var minDate, maxDate string
	for _, tr := range trades {
		totalProfit += tr.Profit
		totalPct += tr.ProfitPct

		if tr.Profit > 0 {
			stats.WinningTrades++
			winPct += tr.ProfitPct
		} else if tr.Profit < 0 {
			stats.LosingTrades++
			lossPct += tr.ProfitPct
		}

		if tr.ProfitPct > stats.MaxProfitPct {
			stats.MaxProfitPct = tr.ProfitPct
		}
		if tr.ProfitPct < stats.MaxLossPct {
			stats.MaxLossPct = tr.ProfitPct
		}

		for _, d := range []string{tr.EntryDate, tr.ExitDate} {
			if d == "" {
				continue
			}
			if minDate == "" || d < minDate {
				minDate = d
			}
			if maxDate == "" || d > maxDate {
				maxDate = d
			}
		}
	}

	stats.WinRate = round2(float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100)
	stats.TotalProfit = round2(totalProfit)
	stats.AvgProfitPct = round2(totalPct / float64(stats.TotalTrades))
	if stats.WinningTrades > 0 {
		stats.AvgWinPct = round2(winPct / float64(stats.WinningTrades))
	}
	if stats.LosingTrades > 0 {
		stats.AvgLossPct = round2(lossPct / float64(stats.LosingTrades))
	}
	stats.MaxProfitPct = round2(stats.MaxProfitPct)
	stats.MaxLossPct = round2(stats.MaxLossPct)

	for _, tr := range trades {
		ps := stats.PatternStats[tr.Pattern]
		ps.Total++
		if tr.Profit > 0 {
			ps.Wins++
		}
		ps.AvgProfitPct += tr.ProfitPct // 아래에서 평균으로 변환
		stats.PatternStats[tr.Pattern] = ps

		rs := stats.ReasonStats[tr.Reason]
		rs.Count++
		rs.AvgProfitPct += tr.ProfitPct
		stats.ReasonStats[tr.Reason] = rs
	}
	for pattern, ps := range stats.PatternStats {
		ps.Losses = ps.Total - ps.Wins
		ps.WinRate = float64(ps.Wins) / float64(ps.Total) * 100
		ps.AvgProfitPct /= float64(ps.Total)
		stats.PatternStats[pattern] = ps
	}
	for reason, rs := range stats.ReasonStats {
		rs.AvgProfitPct /= float64(rs.Count)
		stats.ReasonStats[reason] = rs
	}

	if minDate != "" {
		stats.StartDate = &minDate
	}
	if maxDate != "" {
		stats.EndDate = &maxDate
	}
	return stats, nil
}

// datePart strips the time component from "2024-03-15 00:00:00"
func datePart(v string) string {
	if i := strings.IndexByte(v, ' '); i >= 0 {
		return v[:i]
	}
	return v
}

func parseFloat(v string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(v string) int {
	if v == "" {
		return 0
	}
	// 내보내기에 따라 "12.0" 형태가 섞여 있음
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
