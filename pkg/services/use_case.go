package services

import (
	"context"
	"strings"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/workflow"
)

type UseCase struct {
	engine *workflow.Engine
}

// NewUseCase creates a new use case service.
func NewUseCase(engine *workflow.Engine) *UseCase {
	return &UseCase{
		engine: engine,
	}
}

// Kinds lists the registered use-case kinds in lexical order.
func (u *UseCase) Kinds() []string {
	return u.engine.Registry().Kinds()
}

// Describe returns the declaration of a kind.
func (u *UseCase) Describe(kind string) (models.UseCaseDescriptor, error) {
	return u.engine.Registry().Describe(kind)
}

// StartRequest carries the construction arguments of a new use case.
type StartRequest struct {
	Kind       string
	Attributes map[string]any
}

// Start constructs a use case of the requested kind and starts it.
func (u *UseCase) Start(ctx context.Context, req StartRequest) (models.UseCaseSnapshot, error) {
	if strings.TrimSpace(req.Kind) == "" {
		return models.UseCaseSnapshot{}, NewValidationError("Start", "INVALID_KIND", "kind is required", ErrInvalidRequest)
	}

	task, err := u.engine.Start(ctx, req.Kind, req.Attributes)
	if err != nil {
		return models.UseCaseSnapshot{}, err
	}

	return task.Snapshot(), nil
}

// HealthCheck reports whether any use case can be started.
func (u *UseCase) HealthCheck() (string, bool) {
	return u.engine.Registry().HealthCheck()
}
