package database

import (
	"context"
	"fmt"
)

// migrations are applied in order on every startup. Each statement is
// idempotent (IF NOT EXISTS) so re-running is safe.
// ⭐ SSOT: 스키마 정의는 여기에서만 관리
var migrations = []string{
	// Paper trading positions. Opened by the scanner, closed by the
	// position manager.
	`CREATE TABLE IF NOT EXISTS positions (
		id SERIAL PRIMARY KEY,
		ticker VARCHAR(20) NOT NULL,
		market VARCHAR(10) NOT NULL DEFAULT 'US',
		source VARCHAR(20) NOT NULL DEFAULT 'dynamic',
		entry_price DECIMAL(15, 4) NOT NULL,
		quantity DECIMAL(15, 4),
		investment_amount DECIMAL(15, 2),
		entry_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		pattern VARCHAR(50) NOT NULL,
		stop_loss DECIMAL(15, 4),
		take_profit DECIMAL(15, 4),
		signal_data JSONB,
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		exit_price DECIMAL(15, 4),
		exit_date TIMESTAMP,
		exit_reason VARCHAR(100),
		profit_pct DECIMAL(10, 4),
		profit_amount DECIMAL(15, 2),
		holding_days INTEGER,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_ticker ON positions(ticker)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_source ON positions(source)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_entry_date ON positions(entry_date)`,

	// Detected signals. The UNIQUE constraint is what makes saves
	// idempotent per (ticker, pattern, source, day).
	`CREATE TABLE IF NOT EXISTS alerts (
		id SERIAL PRIMARY KEY,
		ticker VARCHAR(20) NOT NULL,
		market VARCHAR(10) NOT NULL DEFAULT 'US',
		pattern VARCHAR(50) NOT NULL,
		source VARCHAR(20) NOT NULL DEFAULT 'dynamic',
		alert_date DATE NOT NULL DEFAULT CURRENT_DATE,
		alert_price DECIMAL(15, 4) NOT NULL,
		signal_data JSONB,
		sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(ticker, pattern, source, alert_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_ticker ON alerts(ticker)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_source ON alerts(source)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_alert_date ON alerts(alert_date)`,
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
