package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/workflow"
)

type Task struct {
	engine *workflow.Engine
}

// NewTask creates a new task service.
func NewTask(engine *workflow.Engine) *Task {
	return &Task{
		engine: engine,
	}
}

// ListTasksRequest contains options for listing tasks.
type ListTasksRequest struct {
	// Filtering
	Status string
	Kind   string
}

// List returns the task table in start order, filtered by status and kind.
func (s *Task) List(ctx context.Context, req ListTasksRequest) ([]models.UseCaseSnapshot, error) {
	var status models.UseCaseStatus

	if req.Status != "" {
		parsed, ok := models.ParseUseCaseStatus(strings.ToLower(req.Status))
		if !ok {
			return nil, NewValidationError(
				"List",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status '%s', allowed: pending, running, finished, failed", req.Status),
				ErrInvalidStatus,
			)
		}

		status = parsed
	}

	tasks, err := s.engine.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	snapshots := make([]models.UseCaseSnapshot, 0, len(tasks))

	for _, task := range tasks {
		snapshot := task.Snapshot()

		if status != "" && snapshot.Status != status {
			continue
		}

		if req.Kind != "" && snapshot.Kind != req.Kind {
			continue
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// FetchByID returns the current state of a task.
func (s *Task) FetchByID(ctx context.Context, id string) (models.UseCaseSnapshot, error) {
	if id == "" {
		return models.UseCaseSnapshot{}, ErrEmptyID
	}

	task, err := s.engine.Task(ctx, id)
	if err != nil {
		return models.UseCaseSnapshot{}, err
	}

	return task.Snapshot(), nil
}

// Actions returns the client actions a task issued, in issue order.
func (s *Task) Actions(ctx context.Context, id string) ([]models.ActionSnapshot, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	actions, err := s.engine.Actions(ctx, id)
	if err != nil {
		return nil, err
	}

	return snapshots(actions), nil
}

func snapshots(actions []*models.ClientAction) []models.ActionSnapshot {
	out := make([]models.ActionSnapshot, 0, len(actions))
	for _, action := range actions {
		out = append(out, action.Snapshot())
	}

	return out
}
