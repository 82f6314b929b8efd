package engine

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives recurring all-user scans on a fixed interval.
type Scheduler struct {
	engine   *ScanEngine
	logger   *slog.Logger
	interval time.Duration
}

// NewScheduler creates a scheduler around the engine.
func NewScheduler(engine *ScanEngine, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		engine:   engine,
		logger:   logger,
		interval: interval,
	}
}

// Run blocks, scanning all users once per interval until the context is
// canceled. The first sweep runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	start := time.Now()
	reports := s.engine.RunScheduledScanAllUsers(ctx)

	var processed, skipped int
	for _, r := range reports {
		processed += r.Processed
		skipped += r.Skipped
	}
	s.logger.Info("scheduled sweep complete",
		"users", len(reports),
		"processed", processed,
		"skipped", skipped,
		"duration", time.Since(start))
}
