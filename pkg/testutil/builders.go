// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/persistence/memory"
	"github.com/dukex/dno/pkg/protocol"
	"github.com/dukex/dno/pkg/registry"
	"github.com/dukex/dno/pkg/schema"
	"github.com/dukex/dno/pkg/workflow"
	"github.com/stretchr/testify/require"
)

// DummyKind is the kind name of CreateTestDefinition.
const DummyKind = "Dummy"

// DummyAction takes {x integer, y number, z string} and answers
// {a string, b {x integer, y integer}}.
func DummyAction() *protocol.ActionField {
	return protocol.MustActionField("get_vm",
		schema.MustStrict(
			schema.Required("x", schema.Integer()),
			schema.Required("y", schema.Number()),
			schema.Required("z", schema.String()),
		),
		DummyResult(),
	)
}

func DummyResult() *schema.Schema {
	return schema.MustObject(
		schema.Required("a", schema.String()),
		schema.Required("b", schema.ObjectOf(
			schema.Required("x", schema.Integer()),
			schema.Required("y", schema.Integer()),
		)),
	)
}

// CreateTestDefinition creates a use case requiring {a integer, b number}
// that issues one DummyAction with {x: a, y: b, z: "abc"} and returns its
// result.
func CreateTestDefinition(overrides ...func(*protocol.Definition)) *protocol.Definition {
	action := DummyAction()

	def := &protocol.Definition{
		Kind:    DummyKind,
		Title:   "Dummy use case",
		Summary: "Requests one client action and returns its result",
		Attrs: schema.MustStrict(
			schema.Required("a", schema.Integer()),
			schema.Required("b", schema.Number()),
		),
		Output: DummyResult(),
		Fields: []*protocol.ActionField{action},
	}

	def.New = func(attributes map[string]any) (protocol.UseCase, error) {
		return protocol.RunFunc(func(ctx context.Context, env protocol.Env) (map[string]any, error) {
			return action.Request(ctx, env, map[string]any{
				"x": attributes["a"],
				"y": attributes["b"],
				"z": "abc",
			})
		}), nil
	}

	for _, override := range overrides {
		override(def)
	}

	return def
}

// WithKind sets the kind name.
func WithKind(kind string) func(*protocol.Definition) {
	return func(d *protocol.Definition) {
		d.Kind = kind
	}
}

// WithRun replaces the business logic.
func WithRun(run protocol.RunFunc) func(*protocol.Definition) {
	return func(d *protocol.Definition) {
		d.New = func(map[string]any) (protocol.UseCase, error) {
			return run, nil
		}
	}
}

// WithAttributes replaces the attribute schema.
func WithAttributes(fields ...schema.Field) func(*protocol.Definition) {
	return func(d *protocol.Definition) {
		d.Attrs = schema.MustStrict(fields...)
	}
}

// DummyAttributes satisfy CreateTestDefinition.
func DummyAttributes() map[string]any {
	return map[string]any{"a": 4, "b": 3.14}
}

// DummyPayload satisfies DummyResult.
func DummyPayload() map[string]any {
	return map[string]any{"a": "500", "b": map[string]any{"x": 5, "y": 1}}
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRegistry returns a registry holding defs.
func NewRegistry(t *testing.T, defs ...protocol.UseCaseFactory) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(DiscardLogger())
	for _, def := range defs {
		require.NoError(t, reg.Register(def))
	}

	return reg
}

// NewEngine builds an engine over in-memory stores and shuts it down when
// the test ends.
func NewEngine(t *testing.T, reg *registry.Registry, config workflow.Config) *workflow.Engine {
	t.Helper()

	engine := workflow.NewEngine(DiscardLogger(), reg, memory.NewTaskTable[*workflow.Task](), memory.NewActionStore(), config)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = engine.Shutdown(ctx)
	})

	return engine
}

// WaitForAction waits until task has issued at least n client actions and
// returns the n-th.
func WaitForAction(t *testing.T, engine *workflow.Engine, task *workflow.Task, n int) *models.ClientAction {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(task.ActionIDs()) >= n
	}, 2*time.Second, 5*time.Millisecond, "task %s issued fewer than %d client actions", task.ID(), n)

	action, err := engine.Action(context.Background(), task.ActionIDs()[n-1])
	require.NoError(t, err)

	return action
}

// WaitForTask waits until task reaches a terminal status.
func WaitForTask(t *testing.T, task *workflow.Task) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, task.Wait(ctx), "task %s did not complete", task.ID())
}
