// Package reaper periodically evicts terminal use cases and their client
// actions from the engine's in-memory tables.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "*/5 * * * *"

var ErrNoSchedule = errors.New("reaper schedule is required")

// Target is what the reaper evicts from.
type Target interface {
	Reap(ctx context.Context, now time.Time, olderThan time.Duration) (int, error)
}

type Reaper struct {
	target    Target
	schedule  string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
	cron      *cron.Cron
}

func NewReaper(target Target, schedule string, retention time.Duration, logger *slog.Logger) (*Reaper, error) {
	r := &Reaper{
		target:    target,
		schedule:  schedule,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		logger: logger.With(
			"module", "reaper",
			"schedule", schedule,
			"retention", retention.String(),
		),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Reaper) Validate() error {
	if r.schedule == "" {
		return ErrNoSchedule
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if r.retention < 0 {
		return fmt.Errorf("retention must not be negative, got %s", r.retention)
	}

	return nil
}

func (r *Reaper) Start(ctx context.Context) error {
	r.logger.Info("Starting reaper")

	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := r.cron.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to add reaper job: %w", err)
	}

	r.cron.Start()

	return nil
}

// RunOnce performs one eviction pass and returns how many tasks were removed.
func (r *Reaper) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	n, err := r.target.Reap(ctx, r.now(), r.retention)
	if err != nil {
		r.logger.Error("Reaping failed", "error", err)

		return n
	}

	r.logger.Debug("Reaping pass done", "tasks", n)

	return n
}

func (r *Reaper) Stop(ctx context.Context) error {
	r.logger.Info("Stopping reaper")

	if r.cron == nil {
		return nil
	}

	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
