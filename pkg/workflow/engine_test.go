package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukex/dno/pkg/eventbus"
	"github.com/dukex/dno/pkg/events"
	"github.com/dukex/dno/pkg/metrics"
	"github.com/dukex/dno/pkg/mocks"
	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/persistence"
	"github.com/dukex/dno/pkg/persistence/memory"
	"github.com/dukex/dno/pkg/protocol"
	"github.com/dukex/dno/pkg/schema"
	"github.com/dukex/dno/pkg/testutil"
	"github.com/dukex/dno/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newDummyEngine(t *testing.T, config workflow.Config, overrides ...func(*protocol.Definition)) *workflow.Engine {
	t.Helper()

	return testutil.NewEngine(t, testutil.NewRegistry(t, testutil.CreateTestDefinition(overrides...)), config)
}

func TestEngine_ScenarioA_ResolvedActionFinishesUseCase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)
	assert.Equal(t, models.UseCaseStatusRunning, task.Status())

	action := testutil.WaitForAction(t, engine, task, 1)
	assert.Equal(t, "get_vm", action.Name())
	assert.Equal(t, models.ActionStatusPending, action.Status())
	assert.Equal(t, map[string]any{"x": 4, "y": 3.14, "z": "abc"}, action.Args())

	_, err = engine.SetActionRunning(ctx, action.ID())
	require.NoError(t, err)

	_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
	require.NoError(t, err)

	testutil.WaitForTask(t, task)

	assert.Equal(t, models.UseCaseStatusFinished, task.Status())
	assert.Equal(t, testutil.DummyPayload(), task.Result())
	assert.Nil(t, task.Failure())

	snapshot := task.Snapshot()
	assert.Equal(t, []string{action.ID()}, snapshot.Actions)
	assert.NotNil(t, snapshot.StartedAt)
	assert.NotNil(t, snapshot.FinishedAt)
}

func TestEngine_ScenarioB_MissingArgumentStoresNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	callErr := make(chan error, 1)

	engine := newDummyEngine(t, workflow.Config{}, testutil.WithRun(func(ctx context.Context, env protocol.Env) (map[string]any, error) {
		_, err := testutil.DummyAction().Call(ctx, env, map[string]any{"x": 4, "z": "abc"})
		callErr <- err

		return nil, err
	}))

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	err = <-callErr
	require.Error(t, err)
	assert.Equal(t, []schema.FieldError{{Field: "y", Kind: schema.KindMissing, Message: "field required"}}, schema.FieldErrors(err))

	testutil.WaitForTask(t, task)
	assert.Empty(t, task.ActionIDs())

	actions, err := engine.Actions(ctx, task.ID())
	require.NoError(t, err)
	assert.Empty(t, actions)

	assert.Equal(t, models.UseCaseStatusFailed, task.Status())
	assert.Equal(t, "validation_error", task.Failure()["type"])
}

func TestEngine_ScenarioC_ResolvePendingActionFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, task, 1)

	for _, resolve := range []func() (*models.ClientAction, error){
		func() (*models.ClientAction, error) {
			return engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
		},
		func() (*models.ClientAction, error) { return engine.SetActionError(ctx, action.ID(), nil) },
	} {
		_, err := resolve()
		require.Error(t, err)
		assert.True(t, models.IsUnexpectedStatus(err))

		current, ok := models.CurrentStatus(err)
		assert.True(t, ok)
		assert.Equal(t, string(models.ActionStatusPending), current)
	}

	assert.Equal(t, models.ActionStatusPending, action.Status())
	assert.Equal(t, models.UseCaseStatusRunning, task.Status())
}

func TestEngine_ScenarioD_UnknownKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	_, err := engine.Start(ctx, "Missing", testutil.DummyAttributes())
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	tasks, err := engine.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, []string{testutil.DummyKind}, engine.Registry().Kinds())
}

func TestEngine_Construction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		attributes map[string]any
		fields     []schema.FieldError
	}{
		{
			name:       "missing attribute",
			attributes: map[string]any{"a": 4},
			fields:     []schema.FieldError{{Field: "b", Kind: schema.KindMissing, Message: "field required"}},
		},
		{
			name:       "undeclared attribute",
			attributes: map[string]any{"a": 4, "b": 1.5, "c": true},
			fields:     []schema.FieldError{{Field: "c", Kind: schema.KindUnknown, Message: "field not declared"}},
		},
		{
			name:       "reserved attribute",
			attributes: map[string]any{"a": 4, "b": 1.5, "status": "done"},
			fields:     []schema.FieldError{{Field: "status", Kind: schema.KindUnknown, Message: "reserved attribute cannot be supplied"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			engine := newDummyEngine(t, workflow.Config{})

			_, err := engine.Start(ctx, testutil.DummyKind, tt.attributes)
			require.Error(t, err)
			assert.True(t, models.IsConstruction(err))
			assert.Equal(t, tt.fields, schema.FieldErrors(err))

			tasks, err := engine.Tasks(ctx)
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}

	t.Run("mistyped attribute", func(t *testing.T) {
		t.Parallel()

		engine := newDummyEngine(t, workflow.Config{})

		_, err := engine.NewTask(testutil.DummyKind, map[string]any{"a": "four", "b": 1.5})
		require.Error(t, err)

		fields := schema.FieldErrors(err)
		require.Len(t, fields, 1)
		assert.Equal(t, "a", fields[0].Field)
		assert.Equal(t, schema.KindInvalidType, fields[0].Kind)
	})
}

func TestEngine_Construction_LenientAttributeSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{}, func(d *protocol.Definition) {
		d.Attrs = schema.MustObject(
			schema.Required("a", schema.Integer()),
			schema.Required("b", schema.Number()),
		)
	})

	_, err := engine.Start(ctx, testutil.DummyKind, map[string]any{"a": 4, "b": 3.14, "undeclared": "x"})
	require.Error(t, err)
	assert.True(t, models.IsConstruction(err))
	assert.Equal(t, []schema.FieldError{
		{Field: "undeclared", Kind: schema.KindUnknown, Message: "field not declared"},
	}, schema.FieldErrors(err))

	tasks, err := engine.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	task, err := engine.NewTask(testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)
	assert.Equal(t, testutil.DummyAttributes(), task.Attributes())
}

func TestEngine_Construction_CreateFailureIsConstructionError(t *testing.T) {
	t.Parallel()

	engine := newDummyEngine(t, workflow.Config{}, func(d *protocol.Definition) {
		d.New = func(attributes map[string]any) (protocol.UseCase, error) {
			if _, err := schema.Decode[struct {
				A int `json:"a"`
			}](attributes); err != nil {
				return nil, err
			}

			return protocol.RunFunc(func(context.Context, protocol.Env) (map[string]any, error) {
				return testutil.DummyPayload(), nil
			}), nil
		}
	})

	_, err := engine.NewTask(testutil.DummyKind, map[string]any{"a": 1e20, "b": 1.5})
	require.Error(t, err)
	assert.True(t, models.IsConstruction(err))

	fields := schema.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "(root)", fields[0].Field)
	assert.Equal(t, schema.KindInvalidValue, fields[0].Kind)
	assert.Contains(t, fields[0].Message, "cannot unmarshal")
}

func TestEngine_AttributesAreCopied(t *testing.T) {
	t.Parallel()

	engine := newDummyEngine(t, workflow.Config{})

	attributes := testutil.DummyAttributes()
	task, err := engine.NewTask(testutil.DummyKind, attributes)
	require.NoError(t, err)

	attributes["a"] = 100

	assert.Equal(t, 4, task.Attributes()["a"])
}

func TestTask_StartAtMostOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	runs := make(chan struct{}, 2)
	release := make(chan struct{})

	engine := newDummyEngine(t, workflow.Config{}, testutil.WithRun(func(context.Context, protocol.Env) (map[string]any, error) {
		runs <- struct{}{}
		<-release

		return testutil.DummyPayload(), nil
	}))

	task, err := engine.NewTask(testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)
	assert.Equal(t, models.UseCaseStatusPending, task.Status())

	_, err = engine.Task(ctx, task.ID())
	assert.True(t, persistence.IsTaskNotFound(err), "a pending task is not in the task table")

	require.NoError(t, task.Start(ctx))

	err = task.Start(ctx)
	require.Error(t, err)
	current, _ := models.CurrentStatus(err)
	assert.Equal(t, string(models.UseCaseStatusRunning), current)

	close(release)
	testutil.WaitForTask(t, task)

	err = task.Start(ctx)
	require.Error(t, err)
	current, _ = models.CurrentStatus(err)
	assert.Equal(t, string(models.UseCaseStatusFinished), current)

	assert.Len(t, runs, 1)

	tasks, err := engine.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestEngine_RunOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		run      protocol.RunFunc
		status   models.UseCaseStatus
		failType string
	}{
		{
			name: "returned error",
			run: func(context.Context, protocol.Env) (map[string]any, error) {
				return nil, errors.New("no capacity")
			},
			status:   models.UseCaseStatusFailed,
			failType: "workflow_error",
		},
		{
			name: "panic",
			run: func(context.Context, protocol.Env) (map[string]any, error) {
				panic("boom")
			},
			status:   models.UseCaseStatusFailed,
			failType: "workflow_error",
		},
		{
			name: "result violates schema",
			run: func(context.Context, protocol.Env) (map[string]any, error) {
				return map[string]any{"a": 500}, nil
			},
			status:   models.UseCaseStatusFailed,
			failType: "validation_error",
		},
		{
			name: "valid result",
			run: func(context.Context, protocol.Env) (map[string]any, error) {
				return testutil.DummyPayload(), nil
			},
			status: models.UseCaseStatusFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newDummyEngine(t, workflow.Config{}, testutil.WithRun(tt.run))

			task, err := engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
			require.NoError(t, err)

			testutil.WaitForTask(t, task)
			assert.Equal(t, tt.status, task.Status())

			if tt.failType == "" {
				assert.Nil(t, task.Failure())

				return
			}

			assert.Nil(t, task.Result())
			assert.Equal(t, tt.failType, task.Failure()["type"])
			assert.NotEmpty(t, task.Failure()["message"])
		})
	}
}

func TestEngine_ActionError_FailsUseCase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, task, 1)

	_, err = engine.SetActionRunning(ctx, action.ID())
	require.NoError(t, err)

	_, err = engine.SetActionError(ctx, action.ID(), map[string]any{"reason": "quota exceeded"})
	require.NoError(t, err)

	testutil.WaitForTask(t, task)

	failure := task.Failure()
	assert.Equal(t, "action_failed", failure["type"])
	assert.Equal(t, action.ID(), failure["action_id"])
	assert.Equal(t, map[string]any{"reason": "quota exceeded"}, failure["action_error"])

	_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
	assert.True(t, models.IsUnexpectedStatus(err), "result and error are mutually exclusive")
}

func TestEngine_SetActionResult_ValidatesPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, task, 1)

	_, err = engine.SetActionRunning(ctx, action.ID())
	require.NoError(t, err)

	_, err = engine.SetActionResult(ctx, action.ID(), map[string]any{"a": "500"})
	require.Error(t, err)
	assert.True(t, schema.IsValidationError(err))
	assert.Equal(t, "b", schema.FieldErrors(err)[0].Field)
	assert.Equal(t, models.ActionStatusRunning, action.Status())

	_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
	require.NoError(t, err)
	testutil.WaitForTask(t, task)
	assert.Equal(t, models.UseCaseStatusFinished, task.Status())
}

func TestEngine_UnknownAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	_, err := engine.SetActionRunning(ctx, "nope")
	assert.True(t, persistence.IsActionNotFound(err))

	_, err = engine.Action(ctx, "nope")
	assert.True(t, models.IsNotFound(err))

	assert.True(t, persistence.IsActionNotFound(engine.DeleteAction(ctx, "nope")))

	_, err = engine.Actions(ctx, "nope")
	assert.True(t, persistence.IsTaskNotFound(err))
}

func TestEngine_DeleteAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, task, 1)
	require.NoError(t, engine.DeleteAction(ctx, action.ID()))

	_, err = engine.Action(ctx, action.ID())
	assert.True(t, persistence.IsActionNotFound(err))
	assert.Equal(t, models.UseCaseStatusRunning, task.Status())
}

func TestEngine_ActionTimeout(t *testing.T) {
	t.Parallel()

	engine := newDummyEngine(t, workflow.Config{ActionTimeout: 20 * time.Millisecond})

	task, err := engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	testutil.WaitForTask(t, task)

	assert.Equal(t, models.UseCaseStatusFailed, task.Status())
	assert.Equal(t, "action_timeout", task.Failure()["type"])

	action, err := engine.Action(context.Background(), task.ActionIDs()[0])
	require.NoError(t, err)
	assert.Equal(t, models.ActionStatusPending, action.Status())
}

func TestEngine_Shutdown_CancelsRunningTasks(t *testing.T) {
	t.Parallel()

	engine := newDummyEngine(t, workflow.Config{})

	task, err := engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)
	testutil.WaitForAction(t, engine, task, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, engine.Shutdown(ctx))

	assert.Equal(t, models.UseCaseStatusFailed, task.Status())
	assert.Equal(t, "cancelled", task.Failure()["type"])

	_, err = engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
	assert.ErrorIs(t, err, workflow.ErrEngineClosed)
}

func TestEngine_Reap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	engine := newDummyEngine(t, workflow.Config{Now: clock})

	finished, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, finished, 1)
	_, err = engine.SetActionRunning(ctx, action.ID())
	require.NoError(t, err)
	_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
	require.NoError(t, err)
	testutil.WaitForTask(t, finished)

	running, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)
	pending := testutil.WaitForAction(t, engine, running, 1)

	reaped, err := engine.Reap(ctx, now.Add(30*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, reaped, "inside the retention window")

	reaped, err = engine.Reap(ctx, now.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	_, err = engine.Task(ctx, finished.ID())
	assert.True(t, persistence.IsTaskNotFound(err))

	_, err = engine.Action(ctx, action.ID())
	assert.True(t, persistence.IsActionNotFound(err))

	_, err = engine.Task(ctx, running.ID())
	require.NoError(t, err)

	_, err = engine.Action(ctx, pending.ID())
	require.NoError(t, err)
}

func TestEngine_PublishesLifecycleEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("event-id")

	published := make(chan events.EventType, 16)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published <- args.Get(2).(eventbus.Event).GetType()
		}).
		Return(nil)

	engine := newDummyEngine(t, workflow.Config{EventBus: bus, Metrics: metrics.NewCollector(metrics.Namespace)})

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	action := testutil.WaitForAction(t, engine, task, 1)
	_, err = engine.SetActionRunning(ctx, action.ID())
	require.NoError(t, err)
	_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
	require.NoError(t, err)
	testutil.WaitForTask(t, task)

	got := make([]events.EventType, 0, 5)

	for range 5 {
		select {
		case eventType := <-published:
			got = append(got, eventType)
		case <-time.After(time.Second):
			t.Fatalf("only %v were published", got)
		}
	}

	assert.Equal(t, events.UseCaseStartedEvent, got[0])
	assert.Equal(t, events.ClientActionRequestedEvent, got[1])
	assert.Equal(t, events.ClientActionRunningEvent, got[2])
	assert.ElementsMatch(t, []events.EventType{events.ClientActionDoneEvent, events.UseCaseFinishedEvent}, got[3:])

	bus.AssertCalled(t, "Publish", mock.Anything, task.ID(), mock.Anything)
}

func TestEngine_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("event-id")
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	engine := newDummyEngine(t, workflow.Config{EventBus: bus}, testutil.WithRun(func(context.Context, protocol.Env) (map[string]any, error) {
		return testutil.DummyPayload(), nil
	}))

	task, err := engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	testutil.WaitForTask(t, task)
	assert.Equal(t, models.UseCaseStatusFinished, task.Status())
}

func TestEngine_ActionsInIssueOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	field := testutil.DummyAction()

	engine := newDummyEngine(t, workflow.Config{}, testutil.WithRun(func(ctx context.Context, env protocol.Env) (map[string]any, error) {
		var last map[string]any

		for i := range 3 {
			result, err := field.Request(ctx, env, map[string]any{"x": i, "y": 1.0, "z": fmt.Sprint(i)})
			if err != nil {
				return nil, err
			}

			last = result
		}

		return last, nil
	}))

	task, err := engine.Start(ctx, testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		action := testutil.WaitForAction(t, engine, task, i)
		assert.Equal(t, i-1, action.Args()["x"])

		_, err = engine.SetActionRunning(ctx, action.ID())
		require.NoError(t, err)
		_, err = engine.SetActionResult(ctx, action.ID(), testutil.DummyPayload())
		require.NoError(t, err)
	}

	testutil.WaitForTask(t, task)

	actions, err := engine.Actions(ctx, task.ID())
	require.NoError(t, err)
	require.Len(t, actions, 3)

	for i, action := range actions {
		assert.Equal(t, task.ActionIDs()[i], action.ID())
		assert.Equal(t, models.ActionStatusDone, action.Status())
	}
}

func TestProperty_Construction(t *testing.T) {
	engine := newDummyEngine(t, workflow.Config{})
	seen := make(map[string]bool)

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int().Draw(t, "a")
		b := rapid.Float64Range(-1e6, 1e6).Draw(t, "b")

		task, err := engine.NewTask(testutil.DummyKind, map[string]any{"a": a, "b": b})
		if err != nil {
			t.Fatalf("well-typed attributes rejected: %v", err)
		}

		if seen[task.ID()] {
			t.Fatalf("id %s issued twice", task.ID())
		}

		seen[task.ID()] = true

		if task.Status() != models.UseCaseStatusPending {
			t.Fatalf("new task is %s", task.Status())
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		bad := rapid.SampledFrom([]map[string]any{
			{},
			{"a": rapid.String().Draw(t, "a"), "b": 1.0},
			{"a": 1, "b": rapid.Bool().Draw(t, "b")},
			{"a": 1},
		}).Draw(t, "attributes")

		_, err := engine.Start(context.Background(), testutil.DummyKind, bad)
		if !models.IsConstruction(err) {
			t.Fatalf("expected construction error, got %v", err)
		}
	})

	tasks, err := engine.Tasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestEngine_TaskTableFailureKeepsTaskPending(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockStore[*workflow.Task]{}
	tasks.On("Add", mock.Anything, mock.Anything).Return(errors.New("table full")).Once()

	reg := testutil.NewRegistry(t, testutil.CreateTestDefinition())
	engine := workflow.NewEngine(testutil.DiscardLogger(), reg, tasks, memory.NewActionStore(), workflow.Config{})

	task, err := engine.NewTask(testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	require.ErrorContains(t, task.Start(context.Background()), "table full")
	assert.Equal(t, models.UseCaseStatusPending, task.Status())
	tasks.AssertExpectations(t)
}

func TestEngine_ActionStoreFailureFailsRun(t *testing.T) {
	t.Parallel()

	actions := &mocks.MockStore[*models.ClientAction]{}
	actions.On("Add", mock.Anything, mock.Anything).
		Return(persistence.NewStoreError("add", "action", "x", errors.New("disk gone"))).Once()

	reg := testutil.NewRegistry(t, testutil.CreateTestDefinition())
	engine := workflow.NewEngine(testutil.DiscardLogger(), reg, memory.NewTaskTable[*workflow.Task](), actions, workflow.Config{})

	task, err := engine.Start(context.Background(), testutil.DummyKind, testutil.DummyAttributes())
	require.NoError(t, err)

	testutil.WaitForTask(t, task)
	assert.Equal(t, models.UseCaseStatusFailed, task.Status())
	assert.Empty(t, task.ActionIDs())
	actions.AssertExpectations(t)
}
