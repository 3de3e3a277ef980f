// Package scheduler runs snapshot builds on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// RunFunc performs one run. A returned error is logged and the schedule
// continues.
type RunFunc func(ctx context.Context) error

// Scheduler periodically invokes a RunFunc. Runs never overlap: a run that
// outlasts the interval delays the next one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	run       RunFunc
	interval  time.Duration
}

// New creates a Scheduler. The first run happens as soon as Start is called.
func New(interval time.Duration, run RunFunc) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		run:       run,
		interval:  interval,
	}
}

// Start schedules the job and starts the underlying scheduler. Runs use ctx;
// cancelling it aborts an in-progress run but does not stop the schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.interval)
	}

	job, err := s.scheduler.Every(s.interval).SingletonMode().StartImmediately().Do(func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		slog.Info("scheduled run starting")
		if err := s.run(ctx); err != nil {
			slog.Error("scheduled run failed", "error", err, "duration", time.Since(start).Round(time.Millisecond))
			return
		}
		slog.Info("scheduled run finished", "duration", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("scheduler: schedule job: %w", err)
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler started", "interval", s.interval, "next_run", job.NextRun())
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
