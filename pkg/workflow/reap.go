package workflow

import (
	"context"
	"log/slog"
	"time"
)

// Reap removes finished and failed tasks whose outcome was recorded before
// now-olderThan, together with their client actions. Terminal actions whose
// task is no longer in the table are removed as well. Running tasks and their
// actions are never touched. It returns the number of tasks removed.
func (e *Engine) Reap(ctx context.Context, now time.Time, olderThan time.Duration) (int, error) {
	cutoff := now.Add(-olderThan)

	tasks, err := e.tasks.List(ctx)
	if err != nil {
		return 0, err
	}

	reaped := make(map[string]bool)
	live := make(map[string]bool, len(tasks))

	for _, task := range tasks {
		finishedAt, ok := task.FinishedAt()
		if !ok || !task.Status().IsTerminal() || !finishedAt.Before(cutoff) {
			live[task.ID()] = true

			continue
		}

		if err := e.tasks.Delete(ctx, task.ID()); err != nil {
			continue
		}

		reaped[task.ID()] = true
	}

	actions, err := e.actions.List(ctx)
	if err != nil {
		return len(reaped), err
	}

	removedActions := 0

	for _, action := range actions {
		owner := action.TaskID()

		if !reaped[owner] && (live[owner] || !action.IsFinished()) {
			continue
		}

		if err := e.actions.Delete(ctx, action.ID()); err == nil {
			removedActions++
		}
	}

	if len(reaped) > 0 || removedActions > 0 {
		e.logger.Info("Reaped terminal use cases",
			slog.Int("tasks", len(reaped)),
			slog.Int("actions", removedActions),
			slog.Time("cutoff", cutoff))
	}

	if e.config.Metrics != nil {
		e.config.Metrics.TasksReaped(len(reaped))
	}

	return len(reaped), nil
}
