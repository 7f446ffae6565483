package services

import (
	"context"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/workflow"
)

// ClientAction exposes client actions to the external actor resolving them.
type ClientAction struct {
	engine *workflow.Engine
}

// NewClientAction creates a new client action service.
func NewClientAction(engine *workflow.Engine) *ClientAction {
	return &ClientAction{
		engine: engine,
	}
}

func (s *ClientAction) FetchByID(ctx context.Context, id string) (models.ActionSnapshot, error) {
	return s.apply(id, func() (*models.ClientAction, error) {
		return s.engine.Action(ctx, id)
	})
}

func (s *ClientAction) SetRunning(ctx context.Context, id string) (models.ActionSnapshot, error) {
	return s.apply(id, func() (*models.ClientAction, error) {
		return s.engine.SetActionRunning(ctx, id)
	})
}

func (s *ClientAction) SetResult(ctx context.Context, id string, result map[string]any) (models.ActionSnapshot, error) {
	return s.apply(id, func() (*models.ClientAction, error) {
		return s.engine.SetActionResult(ctx, id, result)
	})
}

func (s *ClientAction) SetError(ctx context.Context, id string, payload map[string]any) (models.ActionSnapshot, error) {
	return s.apply(id, func() (*models.ClientAction, error) {
		return s.engine.SetActionError(ctx, id, payload)
	})
}

func (s *ClientAction) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	return s.engine.DeleteAction(ctx, id)
}

func (s *ClientAction) apply(id string, op func() (*models.ClientAction, error)) (models.ActionSnapshot, error) {
	if id == "" {
		return models.ActionSnapshot{}, ErrEmptyID
	}

	action, err := op()
	if err != nil {
		return models.ActionSnapshot{}, err
	}

	return action.Snapshot(), nil
}
