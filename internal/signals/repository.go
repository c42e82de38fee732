package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/breakout/backend/internal/contracts"
)

// Repository implements contracts.AlertRepository
// ⭐ SSOT: 시그널(알림) 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new alert repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts an alert row for today. The unique constraint on
// (ticker, pattern, source, alert_date) makes repeat saves no-ops;
// the bool reports whether a new row was written.
func (r *Repository) Save(ctx context.Context, signal *contracts.Signal, source string) (bool, error) {
	signalJSON, err := json.Marshal(signal.Data())
	if err != nil {
		return false, fmt.Errorf("failed to marshal signal data: %w", err)
	}

	query := `
		INSERT INTO alerts (ticker, market, pattern, source, alert_date, alert_price, signal_data)
		VALUES ($1, $2, $3, $4, CURRENT_DATE, $5, $6)
		ON CONFLICT (ticker, pattern, source, alert_date) DO NOTHING
		RETURNING id
	`

	var id int
	err = r.pool.QueryRow(ctx, query,
		signal.Ticker, contracts.MarketUS, signal.Pattern, source, signal.Price, signalJSON,
	).Scan(&id)

	if err == pgx.ErrNoRows {
		return false, nil // duplicate for today
	}
	if err != nil {
		return false, fmt.Errorf("failed to save signal: %w", err)
	}
	return true, nil
}

// ExistsToday checks if an alert was already recorded today
func (r *Repository) ExistsToday(ctx context.Context, ticker, pattern, source string) (bool, error) {
	query := `
		SELECT 1 FROM alerts
		WHERE ticker = $1 AND pattern = $2 AND source = $3 AND alert_date = CURRENT_DATE
		LIMIT 1
	`

	var one int
	err := r.pool.QueryRow(ctx, query, ticker, pattern, source).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check today's alerts: %w", err)
	}
	return true, nil
}

// CountToday returns the number of alerts recorded today across all sources
func (r *Repository) CountToday(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE alert_date = CURRENT_DATE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's alerts: %w", err)
	}
	return count, nil
}

// GetToday retrieves today's alerts, newest first
func (r *Repository) GetToday(ctx context.Context) ([]*contracts.Alert, error) {
	query := `
		SELECT id, ticker, market, pattern, source, alert_date, alert_price, signal_data, sent_at, created_at
		FROM alerts
		WHERE alert_date = CURRENT_DATE
		ORDER BY sent_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetRecent retrieves alerts from the past N days, excluding today
func (r *Repository) GetRecent(ctx context.Context, days int) ([]*contracts.Alert, error) {
	query := `
		SELECT id, ticker, market, pattern, source, alert_date, alert_price, signal_data, sent_at, created_at
		FROM alerts
		WHERE alert_date >= CURRENT_DATE - $1::int
		  AND alert_date < CURRENT_DATE
		ORDER BY alert_date DESC, sent_at DESC
	`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// LatestSentAt returns the most recent sent_at across all alerts,
// or nil when the table is empty. Used as the last-scan fallback on
// days with no signals.
func (r *Repository) LatestSentAt(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(sent_at) FROM alerts`).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sent_at: %w", err)
	}
	return latest, nil
}

func scanAlerts(rows pgx.Rows) ([]*contracts.Alert, error) {
	var alerts []*contracts.Alert
	for rows.Next() {
		var a contracts.Alert
		var signalJSON []byte
		err := rows.Scan(
			&a.ID, &a.Ticker, &a.Market, &a.Pattern, &a.Source,
			&a.AlertDate, &a.AlertPrice, &signalJSON, &a.SentAt, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if len(signalJSON) > 0 {
			if err := json.Unmarshal(signalJSON, &a.SignalData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal signal data: %w", err)
			}
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}
