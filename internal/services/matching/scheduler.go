package matching

import (
	"context"
	"log/slog"
	"time"

	"github.com/comate/comate/internal/model"
)

// BatchRunner runs one batch-matching pass
type BatchRunner interface {
	RunBatch(ctx context.Context) (*model.BatchResult, error)
}

// Scheduler runs batch passes on a fixed interval until its context is cancelled
type Scheduler struct {
	runner   BatchRunner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. A non-positive interval disables it.
func NewScheduler(runner BatchRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Enabled reports whether the scheduler has a positive interval
func (s *Scheduler) Enabled() bool {
	return s.interval > 0
}

// Run blocks, running a pass every interval. A failed pass is logged and the
// next tick proceeds as usual.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	s.logger.Info("batch scheduler started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("batch scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.runner.RunBatch(ctx); err != nil {
				s.logger.Error("scheduled batch match failed", "error", err)
			}
		}
	}
}
