// Package workflow runs use-case instances and mediates the client actions
// they issue.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/dno/pkg/eventbus"
	"github.com/dukex/dno/pkg/events"
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/otelhelper"
	"github.com/dukex/dno/pkg/persistence"
	"github.com/dukex/dno/pkg/registry"
	"github.com/dukex/dno/pkg/schema"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrEngineClosed is returned by Start after Shutdown.
	ErrEngineClosed = errors.New("engine is shut down")

	// ErrPanic marks a use case whose Run panicked.
	ErrPanic = errors.New("use case panicked")
)

// TaskStore is the task table.
type TaskStore = persistence.Store[*Task]

// ActionStore holds every client action issued by any task.
type ActionStore = persistence.Store[*models.ClientAction]

type Engine struct {
	logger   *slog.Logger
	registry *registry.Registry
	tasks    TaskStore
	actions  ActionStore
	config   Config
	tracer   trace.Tracer

	baseCtx context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEngine(logger *slog.Logger, reg *registry.Registry, tasks TaskStore, actions ActionStore, config Config) *Engine {
	config = config.withDefaults()

	tracer := config.Tracer
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	baseCtx, stop := context.WithCancel(context.Background())

	return &Engine{
		logger:   logger.With("module", "workflow_engine"),
		registry: reg,
		tasks:    tasks,
		actions:  actions,
		config:   config,
		tracer:   tracer,
		baseCtx:  baseCtx,
		stop:     stop,
	}
}

func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// NewTask validates attributes against the kind's declaration and builds a
// pending task. The task is not in the task table until it is started.
func (e *Engine) NewTask(kind string, attributes map[string]any) (*Task, error) {
	factory, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}

	declared := declaredAttributes(factory.Attributes())

	var rejected []schema.FieldError

	for name := range attributes {
		switch {
		case models.IsReservedAttribute(name):
			rejected = append(rejected, schema.FieldError{
				Field:   name,
				Kind:    schema.KindUnknown,
				Message: "reserved attribute cannot be supplied",
			})
		case declared != nil && !declared[name]:
			rejected = append(rejected, schema.FieldError{
				Field:   name,
				Kind:    schema.KindUnknown,
				Message: "field not declared",
			})
		}
	}

	validated, err := factory.Attributes().Validate(attributes)
	if err != nil || len(rejected) > 0 {
		fields := rejected

		for _, f := range schema.FieldErrors(err) {
			if !models.IsReservedAttribute(f.Field) && !slices.Contains(rejected, f) {
				fields = append(fields, f)
			}
		}

		if len(fields) == 0 {
			return nil, fmt.Errorf("validate attributes of %s: %w", kind, err)
		}

		slices.SortStableFunc(fields, func(a, b schema.FieldError) int {
			return strings.Compare(a.Field, b.Field)
		})

		return nil, &models.ConstructionError{Kind: kind, Fields: fields}
	}

	useCase, err := factory.Create(validated)
	if err != nil {
		fields := schema.FieldErrors(err)
		if fields == nil {
			fields = []schema.FieldError{{
				Field:   "(root)",
				Kind:    schema.KindInvalidValue,
				Message: err.Error(),
			}}
		}

		return nil, &models.ConstructionError{Kind: kind, Fields: fields}
	}

	id := e.config.IDGenerator()

	task := &Task{
		engine:     e,
		factory:    factory,
		useCase:    useCase,
		logger:     e.logger.With(slog.String("task_id", id), slog.String("kind", kind)),
		id:         id,
		attributes: validated,
		createdAt:  e.config.Now(),
		status:     models.UseCaseStatusPending,
		done:       make(chan struct{}),
	}

	task.logger.Debug("Use case constructed")

	return task, nil
}

// declaredAttributes returns the attribute names a schema declares, or nil
// when the schema does not list them.
func declaredAttributes(v schema.Validatable) map[string]bool {
	n, ok := v.(interface{ Names() []string })
	if !ok {
		return nil
	}

	declared := make(map[string]bool)
	for _, name := range n.Names() {
		declared[name] = true
	}

	return declared
}

// Start constructs a task of kind and starts it.
func (e *Engine) Start(ctx context.Context, kind string, attributes map[string]any) (*Task, error) {
	task, err := e.NewTask(kind, attributes)
	if err != nil {
		return nil, err
	}

	if err := task.Start(ctx); err != nil {
		return nil, err
	}

	return task, nil
}

func (e *Engine) launch(ctx context.Context, t *Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	if err := e.tasks.Add(ctx, t); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(e.baseCtx)

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		defer cancel()

		t.run(runCtx)
	}()

	return nil
}

func (e *Engine) Task(ctx context.Context, id string) (*Task, error) {
	return e.tasks.Get(ctx, id)
}

// Tasks lists the task table in start order.
func (e *Engine) Tasks(ctx context.Context) ([]*Task, error) {
	return e.tasks.List(ctx)
}

func (e *Engine) Action(ctx context.Context, id string) (*models.ClientAction, error) {
	return e.actions.Get(ctx, id)
}

// Actions lists the client actions of a task in issue order.
func (e *Engine) Actions(ctx context.Context, taskID string) ([]*models.ClientAction, error) {
	if _, err := e.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}

	all, err := e.actions.List(ctx)
	if err != nil {
		return nil, err
	}

	actions := make([]*models.ClientAction, 0)

	for _, action := range all {
		if action.TaskID() == taskID {
			actions = append(actions, action)
		}
	}

	return actions, nil
}

// Shutdown cancels every running task and waits for their goroutines to
// record the outcome, or for ctx to end.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.logger.Info("Shutting down workflow engine")
	e.stop()

	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) newBaseEvent(eventType events.EventType, taskID, kind string) events.BaseEvent {
	var id string
	if e.config.EventBus != nil {
		id = e.config.EventBus.GenerateID()
	}

	event := events.NewBaseEvent(id, eventType, taskID, kind)
	event.Timestamp = e.config.Now()

	return event
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.config.EventBus == nil {
		return
	}

	if err := e.config.EventBus.Publish(ctx, key, event); err != nil {
		e.logger.Error("Failed to publish event",
			slog.String("task_id", key),
			slog.String("event_type", string(event.GetType())),
			slog.Any("error", err))
	}
}

// actionChanged publishes and counts a client action transition.
func (e *Engine) actionChanged(ctx context.Context, kind string, action *models.ClientAction) {
	snapshot := action.Snapshot()

	if e.config.Metrics != nil {
		e.config.Metrics.ActionTransition(snapshot.Name, string(snapshot.Status))

		if snapshot.Status.IsTerminal() {
			e.config.Metrics.ActionResolved(snapshot.Name, string(snapshot.Status), snapshot.UpdatedAt.Sub(snapshot.CreatedAt))
		}
	}

	if e.config.EventBus == nil {
		return
	}

	eventType := events.ActionEventType(snapshot.Status)
	e.publish(ctx, snapshot.TaskID, events.ClientActionChanged{
		BaseEvent: e.newBaseEvent(eventType, snapshot.TaskID, kind),
		Action:    snapshot,
	})
}

func (e *Engine) metricsStarted(kind string) {
	if e.config.Metrics != nil {
		e.config.Metrics.UseCaseStarted(kind)
	}
}

func (e *Engine) metricsCompleted(kind string, status models.UseCaseStatus, duration time.Duration) {
	if e.config.Metrics != nil {
		e.config.Metrics.UseCaseCompleted(kind, string(status), duration)
	}
}
