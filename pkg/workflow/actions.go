package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// SetActionRunning marks a pending client action as picked up by its actor.
func (e *Engine) SetActionRunning(ctx context.Context, id string) (*models.ClientAction, error) {
	return e.transition(ctx, id, "client_action.running", func(action *models.ClientAction) error {
		return action.SetRunning()
	})
}

// SetActionResult resolves a running client action. The payload must satisfy
// the result schema of the field that issued the action; otherwise the
// action is left running.
func (e *Engine) SetActionResult(ctx context.Context, id string, payload map[string]any) (*models.ClientAction, error) {
	return e.transition(ctx, id, "client_action.result", func(action *models.ClientAction) error {
		if status := action.Status(); status != models.ActionStatusRunning {
			return &models.UnexpectedStatusError{Op: "set result", Current: string(status)}
		}

		if resultSchema := action.ResultSchema(); resultSchema != nil {
			validated, err := resultSchema.Validate(payload)
			if err != nil {
				return fmt.Errorf("result of %s: %w", action.Name(), err)
			}

			payload = validated
		}

		return action.SetResult(payload)
	})
}

// SetActionError resolves a running client action with a free-form error payload.
func (e *Engine) SetActionError(ctx context.Context, id string, payload map[string]any) (*models.ClientAction, error) {
	return e.transition(ctx, id, "client_action.error", func(action *models.ClientAction) error {
		return action.SetError(payload)
	})
}

// DeleteAction removes a client action from the action store. A use case
// still waiting on it keeps waiting.
func (e *Engine) DeleteAction(ctx context.Context, id string) error {
	if err := e.actions.Delete(ctx, id); err != nil {
		return err
	}

	e.logger.Debug("Client action deleted", slog.String("action_id", id))

	return nil
}

func (e *Engine) transition(ctx context.Context, id, spanName string, apply func(*models.ClientAction) error) (*models.ClientAction, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, spanName, attribute.String(otelhelper.ActionIDKey, id))
	defer span.End()

	action, err := e.actions.Get(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.ActionNameKey, action.Name()),
		attribute.String(otelhelper.TaskIDKey, action.TaskID()),
	)

	logger := e.logger.With(
		slog.String("action_id", id),
		slog.String("action", action.Name()),
		slog.String("task_id", action.TaskID()))

	if err := apply(action); err != nil {
		otelhelper.SetError(span, err)
		logger.Debug("Client action transition rejected", slog.Any("error", err))

		return nil, err
	}

	status := action.Status()
	span.SetAttributes(attribute.String(otelhelper.ActionStatusKey, string(status)))
	logger.Debug("Client action transitioned", slog.String("status", string(status)))

	e.actionChanged(ctx, e.kindOf(ctx, action.TaskID()), action)

	return action, nil
}

func (e *Engine) kindOf(ctx context.Context, taskID string) string {
	task, err := e.tasks.Get(ctx, taskID)
	if err != nil {
		return ""
	}

	return task.Kind()
}
