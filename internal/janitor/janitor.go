// Package janitor periodically removes stale workspace directories left
// behind by crashed or killed processes. Per-build teardown remains the
// primary cleanup mechanism; the janitor only catches what teardown missed.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
)

// Sweeper removes scratch-root entries older than maxAge and reports how
// many were removed.
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// Janitor wraps a gocron scheduler driving the workspace sweep.
type Janitor struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	maxAge    time.Duration
}

// New creates a janitor sweeping at the given interval. Directories younger
// than maxAge are never touched, keeping in-flight builds safe.
func New(sweeper Sweeper, interval, maxAge time.Duration) (*Janitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("sweep max age must be positive, got %s", maxAge)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	j := &Janitor{
		scheduler: s,
		sweeper:   sweeper,
		maxAge:    maxAge,
	}

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.sweep),
		gocron.WithName("workspace-sweep"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule workspace sweep: %w", err)
	}

	return j, nil
}

// Start begins periodic sweeping.
func (j *Janitor) Start(ctx context.Context) {
	slog.Info("Starting workspace janitor", slog.Duration("max_age", j.maxAge))
	j.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (j *Janitor) Stop(ctx context.Context) error {
	slog.Info("Stopping workspace janitor")
	return j.scheduler.Shutdown()
}

// sweep is called by gocron on every tick.
func (j *Janitor) sweep() {
	removed, err := j.sweeper.Sweep(j.maxAge)
	if err != nil {
		slog.Warn("Workspace sweep failed", logfields.Error(err))
		return
	}
	if removed > 0 {
		slog.Info("Removed stale workspaces", slog.Int("removed", removed))
	}
}
