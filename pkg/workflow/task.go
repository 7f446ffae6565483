package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dukex/dno/pkg/events"
	"github.com/dukex/dno/pkg/log"
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/otelhelper"
	"github.com/dukex/dno/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// Task is one instance of a use-case kind. It implements protocol.Env for
// the use case it runs.
type Task struct {
	engine  *Engine
	factory protocol.UseCaseFactory
	useCase protocol.UseCase
	logger  *slog.Logger

	id         string
	attributes map[string]any
	createdAt  time.Time

	mu         sync.RWMutex
	status     models.UseCaseStatus
	result     map[string]any
	failure    map[string]any
	actions    []string
	startedAt  time.Time
	finishedAt time.Time

	done chan struct{}
}

var _ protocol.Env = (*Task)(nil)

func (t *Task) ID() string                 { return t.id }
func (t *Task) TaskID() string             { return t.id }
func (t *Task) Kind() string               { return t.factory.ID() }
func (t *Task) Attributes() map[string]any { return maps.Clone(t.attributes) }
func (t *Task) Logger() *slog.Logger       { return t.logger }

func (t *Task) Status() models.UseCaseStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status
}

// Result is set only once the task finished.
func (t *Task) Result() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.result
}

// Failure is set only once the task failed.
func (t *Task) Failure() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.failure
}

// ActionIDs lists the client actions issued so far, in issue order.
func (t *Task) ActionIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.actions...)
}

func (t *Task) FinishedAt() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.finishedAt, !t.finishedAt.IsZero()
}

// Done is closed when the task reaches a terminal status.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task is finished or failed, or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start moves a pending task to running, records it in the task table and
// runs the use case in its own goroutine. It may succeed at most once.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.status != models.UseCaseStatusPending {
		current := t.status
		t.mu.Unlock()

		return &models.UnexpectedStatusError{Op: "start", Current: string(current)}
	}

	t.status = models.UseCaseStatusRunning
	t.startedAt = t.engine.config.Now()
	t.mu.Unlock()

	if err := t.engine.launch(ctx, t); err != nil {
		t.mu.Lock()
		t.status = models.UseCaseStatusPending
		t.startedAt = time.Time{}
		t.mu.Unlock()

		return err
	}

	return nil
}

// Call validates args against the field, stores a new pending client action
// and returns it. Nothing is stored when validation fails.
func (t *Task) Call(ctx context.Context, field *protocol.ActionField, args map[string]any) (*models.ClientAction, error) {
	if status := t.Status(); status != models.UseCaseStatusRunning {
		return nil, &models.UnexpectedStatusError{Op: "call " + field.Name(), Current: string(status)}
	}

	validated, err := field.Args().Validate(args)
	if err != nil {
		return nil, fmt.Errorf("arguments of %s: %w", field.Name(), err)
	}

	action := models.NewClientAction(t.engine.config.IDGenerator(), t.id, field.Name(), validated, field.Result())

	if err := t.engine.actions.Add(ctx, action); err != nil {
		return nil, err
	}

	t.logger.Info("Client action requested",
		slog.String("action_id", action.ID()),
		slog.String("action", action.Name()))

	t.engine.actionChanged(ctx, t.Kind(), action)

	t.mu.Lock()
	t.actions = append(t.actions, action.ID())
	t.mu.Unlock()

	return action, nil
}

// Await blocks until action is resolved. With an ActionTimeout configured,
// an unresolved action yields models.ErrActionTimeout and is left as it is.
func (t *Task) Await(ctx context.Context, action *models.ClientAction) (map[string]any, error) {
	waitCtx := ctx

	if timeout := t.engine.config.ActionTimeout; timeout > 0 {
		var cancel context.CancelFunc

		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := action.Wait(waitCtx); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s (%s) after %s",
				models.ErrActionTimeout, action.Name(), action.ID(), t.engine.config.ActionTimeout)
		}

		return nil, fmt.Errorf("await %s (%s): %w", action.Name(), action.ID(), err)
	}

	if action.Status() == models.ActionStatusError {
		return nil, &models.ActionFailedError{
			ActionID: action.ID(),
			Name:     action.Name(),
			Payload:  action.Failure(),
		}
	}

	return action.Result(), nil
}

func (t *Task) Snapshot() models.UseCaseSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := models.UseCaseSnapshot{
		ID:         t.id,
		Kind:       t.factory.ID(),
		Status:     t.status,
		Attributes: maps.Clone(t.attributes),
		Result:     maps.Clone(t.result),
		Error:      maps.Clone(t.failure),
		Actions:    append([]string{}, t.actions...),
		CreatedAt:  t.createdAt,
	}

	if !t.startedAt.IsZero() {
		startedAt := t.startedAt
		snapshot.StartedAt = &startedAt
	}

	if !t.finishedAt.IsZero() {
		finishedAt := t.finishedAt
		snapshot.FinishedAt = &finishedAt
	}

	return snapshot
}

// complete records the terminal status. It returns the run duration.
func (t *Task) complete(status models.UseCaseStatus, result, failure map[string]any) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	t.result = result
	t.failure = failure
	t.finishedAt = t.engine.config.Now()
	close(t.done)

	return t.finishedAt.Sub(t.startedAt)
}

// run executes the use case and records its outcome.
func (t *Task) run(ctx context.Context) {
	ctx, span := otelhelper.StartSpan(ctx, t.engine.tracer, "usecase.run", otelhelper.TaskAttributes(t.id, t.Kind())...)
	defer span.End()

	ctx = log.WithLogger(ctx, t.logger)

	t.engine.metricsStarted(t.Kind())
	t.logger.Info("Use case started")
	t.engine.publish(ctx, t.id, events.UseCaseStarted{
		BaseEvent:  t.engine.newBaseEvent(events.UseCaseStartedEvent, t.id, t.Kind()),
		Attributes: t.Attributes(),
	})

	result, err := t.invoke(ctx)
	if err == nil {
		result, err = t.validateResult(result)
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) && !errors.Is(err, models.ErrCancelled) {
			err = fmt.Errorf("%w: %w", models.ErrCancelled, err)
		}

		wfErr := &models.WorkflowError{Kind: t.Kind(), TaskID: t.id, Err: err}
		payload := wfErr.Payload()
		duration := t.complete(models.UseCaseStatusFailed, nil, payload)

		otelhelper.SetError(span, wfErr, attribute.String(otelhelper.UseCaseStatusKey, string(models.UseCaseStatusFailed)))
		t.logger.Warn("Use case failed", slog.Any("error", err), slog.Duration("duration", duration))
		t.engine.metricsCompleted(t.Kind(), models.UseCaseStatusFailed, duration)
		t.engine.publish(ctx, t.id, events.UseCaseFailed{
			BaseEvent: t.engine.newBaseEvent(events.UseCaseFailedEvent, t.id, t.Kind()),
			Error:     payload,
			Duration:  duration,
		})

		return
	}

	duration := t.complete(models.UseCaseStatusFinished, result, nil)

	span.SetAttributes(attribute.String(otelhelper.UseCaseStatusKey, string(models.UseCaseStatusFinished)))
	t.logger.Info("Use case finished", slog.Duration("duration", duration))
	t.engine.metricsCompleted(t.Kind(), models.UseCaseStatusFinished, duration)
	t.engine.publish(ctx, t.id, events.UseCaseFinished{
		BaseEvent: t.engine.newBaseEvent(events.UseCaseFinishedEvent, t.id, t.Kind()),
		Result:    result,
		Duration:  duration,
	})
}

func (t *Task) invoke(ctx context.Context) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Use case panicked", slog.Any("panic", r))

			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return t.useCase.Run(ctx, t)
}

func (t *Task) validateResult(result map[string]any) (map[string]any, error) {
	validated, err := t.factory.Result().Validate(result)
	if err != nil {
		return nil, fmt.Errorf("result of %s: %w", t.Kind(), err)
	}

	return validated, nil
}
