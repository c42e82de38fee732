package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// AlertRepository persists detected signals. Save is idempotent per
// (ticker, pattern, source, alert_date): the bool reports whether a new
// row was written.
type AlertRepository interface {
	Save(ctx context.Context, signal *Signal, source string) (bool, error)
	ExistsToday(ctx context.Context, ticker, pattern, source string) (bool, error)
	CountToday(ctx context.Context) (int, error)
	GetToday(ctx context.Context) ([]*Alert, error)
	GetRecent(ctx context.Context, days int) ([]*Alert, error)
	LatestSentAt(ctx context.Context) (*time.Time, error)
}

// PositionRepository manages paper trading positions.
// OpenFromSignal applies the capital policy and the one-open-position-
// per-ticker rule inside a single transaction; the bool reports whether
// a position was actually opened.
type PositionRepository interface {
	OpenFromSignal(ctx context.Context, signal *Signal, source string) (*Position, bool, error)
	HasOpen(ctx context.Context, ticker string) (bool, error)
	GetOpen(ctx context.Context) ([]*Position, error)
	GetClosed(ctx context.Context, limit int) ([]*Position, error)
	ClosePosition(ctx context.Context, id int, exitPrice float64, reason string, profitPct float64, holdingDays int) error
	GetClosedStats(ctx context.Context) (*ClosedTradeStats, error)
	GetMonthly(ctx context.Context, limit int) ([]MonthlyPerformance, error)
	GetStartDate(ctx context.Context) (*time.Time, error)
}
