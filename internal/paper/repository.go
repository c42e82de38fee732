package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/config"
)

// openPositionsLockKey serializes position opens across processes so the
// capital snapshot stays consistent when scan paths run concurrently.
const openPositionsLockKey = 874001

// Repository implements contracts.PositionRepository
// ⭐ SSOT: 포지션 저장/조회는 여기서만
type Repository struct {
	pool      *pgxpool.Pool
	allocator *Allocator

	stopLossPct   float64
	takeProfitPct float64
}

// NewRepository creates a new position repository
func NewRepository(pool *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{
		pool:          pool,
		allocator:     NewAllocator(cfg),
		stopLossPct:   cfg.Trading.StopLossPct,
		takeProfitPct: cfg.Trading.TakeProfitPct,
	}
}

// Allocator exposes the capital policy for API summaries
func (r *Repository) Allocator() *Allocator {
	return r.allocator
}

// OpenFromSignal opens a paper position for a signal. The duplicate
// check and the capital snapshot run inside one transaction under an
// advisory lock; the bool reports whether a position was opened.
func (r *Repository) OpenFromSignal(ctx context.Context, signal *contracts.Signal, source string) (*contracts.Position, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", openPositionsLockKey); err != nil {
		return nil, false, fmt.Errorf("failed to acquire open lock: %w", err)
	}

	// One open position per ticker
	var one int
	err = tx.QueryRow(ctx,
		"SELECT 1 FROM positions WHERE ticker = $1 AND status = 'open' LIMIT 1",
		signal.Ticker,
	).Scan(&one)
	if err == nil {
		return nil, false, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to check open position: %w", err)
	}

	var openCount int
	var totalInvested float64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(investment_amount), 0)
		FROM positions
		WHERE status = 'open'
	`).Scan(&openCount, &totalInvested)
	if err != nil {
		return nil, false, fmt.Errorf("failed to snapshot invested capital: %w", err)
	}

	amount := r.allocator.Available(openCount, totalInvested)
	if amount <= 0 {
		return nil, false, nil
	}

	signalJSON, err := json.Marshal(signal.Data())
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal signal data: %w", err)
	}

	entryPrice := signal.Price
	pos := &contracts.Position{
		Ticker:           signal.Ticker,
		Market:           contracts.MarketUS,
		Source:           source,
		Pattern:          signal.Pattern,
		Status:           contracts.PositionStatusOpen,
		EntryPrice:       entryPrice,
		Quantity:         round4(amount / entryPrice),
		InvestmentAmount: round2(amount),
		StopLoss:         round4(entryPrice * (1 - r.stopLossPct)),
		TakeProfit:       round4(entryPrice * (1 + r.takeProfitPct)),
		SignalData:       signal.Data(),
	}

	query := `
		INSERT INTO positions (
			ticker, market, source, entry_price, quantity, investment_amount,
			pattern, stop_loss, take_profit, signal_data, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'open')
		RETURNING id, entry_date, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		pos.Ticker, pos.Market, pos.Source, pos.EntryPrice, pos.Quantity, pos.InvestmentAmount,
		pos.Pattern, pos.StopLoss, pos.TakeProfit, signalJSON,
	).Scan(&pos.ID, &pos.EntryDate, &pos.CreatedAt, &pos.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pos, true, nil
}

// HasOpen checks if a ticker already has an open position
func (r *Repository) HasOpen(ctx context.Context, ticker string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx,
		"SELECT 1 FROM positions WHERE ticker = $1 AND status = 'open' LIMIT 1",
		ticker,
	).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check open position: %w", err)
	}
	return true, nil
}

// GetOpen retrieves all open positions, oldest entry first
func (r *Repository) GetOpen(ctx context.Context) ([]*contracts.Position, error) {
	query := `
		SELECT id, ticker, market, source, entry_price, COALESCE(quantity, 0),
		       COALESCE(investment_amount, 0), entry_date, pattern,
		       COALESCE(stop_loss, 0), COALESCE(take_profit, 0), signal_data,
		       status, created_at, updated_at
		FROM positions
		WHERE status = 'open'
		ORDER BY entry_date
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []*contracts.Position
	for rows.Next() {
		var p contracts.Position
		var signalJSON []byte
		err := rows.Scan(
			&p.ID, &p.Ticker, &p.Market, &p.Source, &p.EntryPrice, &p.Quantity,
			&p.InvestmentAmount, &p.EntryDate, &p.Pattern,
			&p.StopLoss, &p.TakeProfit, &signalJSON,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if len(signalJSON) > 0 {
			if err := json.Unmarshal(signalJSON, &p.SignalData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal signal data: %w", err)
			}
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// GetClosed retrieves closed positions, most recent exit first
func (r *Repository) GetClosed(ctx context.Context, limit int) ([]*contracts.Position, error) {
	query := `
		SELECT id, ticker, market, source, entry_price, COALESCE(quantity, 0),
		       COALESCE(investment_amount, 0), entry_date, pattern,
		       COALESCE(stop_loss, 0), COALESCE(take_profit, 0), signal_data, status,
		       exit_price, exit_date, exit_reason, profit_pct, profit_amount, holding_days,
		       created_at, updated_at
		FROM positions
		WHERE status = 'closed'
		ORDER BY exit_date DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed positions: %w", err)
	}
	defer rows.Close()

	var positions []*contracts.Position
	for rows.Next() {
		var p contracts.Position
		var signalJSON []byte
		err := rows.Scan(
			&p.ID, &p.Ticker, &p.Market, &p.Source, &p.EntryPrice, &p.Quantity,
			&p.InvestmentAmount, &p.EntryDate, &p.Pattern,
			&p.StopLoss, &p.TakeProfit, &signalJSON, &p.Status,
			&p.ExitPrice, &p.ExitDate, &p.ExitReason, &p.ProfitPct, &p.ProfitAmount, &p.HoldingDays,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if len(signalJSON) > 0 {
			if err := json.Unmarshal(signalJSON, &p.SignalData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal signal data: %w", err)
			}
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// ClosePosition marks a position closed with its exit details. The exit
// price recorded is the closing price at check time, even when the
// intraday low triggered the stop.
func (r *Repository) ClosePosition(ctx context.Context, id int, exitPrice float64, reason string, profitPct float64, holdingDays int) error {
	query := `
		UPDATE positions
		SET status = 'closed',
		    exit_price = $2,
		    exit_date = CURRENT_TIMESTAMP,
		    exit_reason = $3,
		    profit_pct = $4,
		    holding_days = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'open'
	`

	tag, err := r.pool.Exec(ctx, query, id, exitPrice, reason, profitPct, holdingDays)
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %d is not open", id)
	}
	return nil
}

// GetClosedStats aggregates all closed trades in one SQL pass
func (r *Repository) GetClosedStats(ctx context.Context) (*contracts.ClosedTradeStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN profit_pct > 0 THEN 1 END),
			COUNT(CASE WHEN profit_pct <= 0 THEN 1 END),
			COALESCE(AVG(profit_pct), 0),
			COALESCE(AVG(CASE WHEN profit_pct > 0 THEN profit_pct END), 0),
			COALESCE(AVG(CASE WHEN profit_pct <= 0 THEN profit_pct END), 0),
			COALESCE(MAX(profit_pct), 0),
			COALESCE(MIN(profit_pct), 0),
			COALESCE(SUM(profit_pct), 0)
		FROM positions
		WHERE status = 'closed'
	`

	var s contracts.ClosedTradeStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalTrades, &s.WinCount, &s.LossCount,
		&s.AvgProfit, &s.AvgWin, &s.AvgLoss,
		&s.MaxProfit, &s.MaxLoss, &s.TotalProfit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate closed trades: %w", err)
	}
	return &s, nil
}

// GetMonthly aggregates closed trades by exit month, most recent first
func (r *Repository) GetMonthly(ctx context.Context, limit int) ([]contracts.MonthlyPerformance, error) {
	query := `
		SELECT
			TO_CHAR(exit_date, 'YYYY-MM') as month,
			COUNT(*),
			COUNT(CASE WHEN profit_pct > 0 THEN 1 END),
			COALESCE(SUM(profit_pct), 0),
			COALESCE(AVG(profit_pct), 0)
		FROM positions
		WHERE status = 'closed' AND exit_date IS NOT NULL
		GROUP BY TO_CHAR(exit_date, 'YYYY-MM')
		ORDER BY month DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly performance: %w", err)
	}
	defer rows.Close()

	var months []contracts.MonthlyPerformance
	for rows.Next() {
		var m contracts.MonthlyPerformance
		if err := rows.Scan(&m.Month, &m.Trades, &m.Wins, &m.TotalProfit, &m.AvgProfit); err != nil {
			return nil, fmt.Errorf("failed to scan monthly row: %w", err)
		}
		m.Losses = m.Trades - m.Wins
		if m.Trades > 0 {
			m.WinRate = round2(float64(m.Wins) / float64(m.Trades) * 100)
		}
		m.TotalProfit = round2(m.TotalProfit)
		m.AvgProfit = round2(m.AvgProfit)
		months = append(months, m)
	}
	return months, rows.Err()
}

// GetStartDate returns the first position entry date, nil when no
// position has ever been opened
func (r *Repository) GetStartDate(ctx context.Context) (*time.Time, error) {
	var start *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MIN(entry_date) FROM positions").Scan(&start)
	if err != nil {
		return nil, fmt.Errorf("failed to query start date: %w", err)
	}
	return start, nil
}
