package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// PositionCheckJob sweeps open paper positions against the exit rules
// once per trading day, after the US session closes.
// ⭐ SSOT: 포지션 청산 스케줄은 이 Job에서만
type PositionCheckJob struct {
	manager *paper.Manager
	logger  *logger.Logger
}

// NewPositionCheckJob creates a new position check job
func NewPositionCheckJob(manager *paper.Manager, log *logger.Logger) *PositionCheckJob {
	return &PositionCheckJob{
		manager: manager,
		logger:  log,
	}
}

// Name returns the job name
func (j *PositionCheckJob) Name() string {
	return "position_check"
}

// Schedule returns the cron schedule. The US session ends by 07:00 KST,
// so 07:10 Tue-Sat evaluates every completed session exactly once.
func (j *PositionCheckJob) Schedule() string {
	return "0 10 7 * * 2-6"
}

// Run executes the position check
func (j *PositionCheckJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled position check")

	results, err := j.manager.CheckPositions(ctx)
	if err != nil {
		return fmt.Errorf("check positions: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"checked": results.Checked,
		"closed":  results.Closed,
		"errors":  results.Errors,
	}).Info("Scheduled position check completed")

	return nil
}
