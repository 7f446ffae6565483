package models

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dukex/dno/pkg/schema"
)

// ActionStatus represents the lifecycle state of a client action.
type ActionStatus string

const (
	ActionStatusPending ActionStatus = "pending" // Issued, nobody picked it up yet
	ActionStatusRunning ActionStatus = "running" // Claimed by an external actor
	ActionStatusDone    ActionStatus = "done"    // Resolved with a result
	ActionStatusError   ActionStatus = "error"   // Resolved with an error
)

// IsTerminal reports whether s is a resolved state.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusDone || s == ActionStatusError
}

// ClientAction is one request delegated to an external actor. It is created
// by a use case and resolved by whoever holds its id.
type ClientAction struct {
	mu sync.RWMutex

	id           string
	taskID       string
	name         string
	args         map[string]any
	resultSchema schema.Validatable

	status    ActionStatus
	result    map[string]any
	failure   map[string]any
	createdAt time.Time
	updatedAt time.Time

	done chan struct{}
}

// NewClientAction creates a pending action. resultSchema may be nil.
func NewClientAction(id, taskID, name string, args map[string]any, resultSchema schema.Validatable) *ClientAction {
	now := time.Now().UTC()

	return &ClientAction{
		id:           id,
		taskID:       taskID,
		name:         name,
		args:         maps.Clone(args),
		resultSchema: resultSchema,
		status:       ActionStatusPending,
		createdAt:    now,
		updatedAt:    now,
		done:         make(chan struct{}),
	}
}

func (a *ClientAction) ID() string     { return a.id }
func (a *ClientAction) TaskID() string { return a.taskID }
func (a *ClientAction) Name() string   { return a.name }

// Args returns a copy of the validated arguments.
func (a *ClientAction) Args() map[string]any {
	return maps.Clone(a.args)
}

// ResultSchema returns the schema results must satisfy, or nil.
func (a *ClientAction) ResultSchema() schema.Validatable {
	return a.resultSchema
}

func (a *ClientAction) Status() ActionStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.status
}

// Result is set only once the action is done.
func (a *ClientAction) Result() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return maps.Clone(a.result)
}

// Failure is set only once the action ended in error.
func (a *ClientAction) Failure() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return maps.Clone(a.failure)
}

func (a *ClientAction) UpdatedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.updatedAt
}

// SetRunning moves a pending action to running.
func (a *ClientAction) SetRunning() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != ActionStatusPending {
		return &UnexpectedStatusError{Op: "set running", Current: string(a.status)}
	}

	a.status = ActionStatusRunning
	a.updatedAt = time.Now().UTC()

	return nil
}

// SetResult resolves a running action with payload.
func (a *ClientAction) SetResult(payload map[string]any) error {
	return a.resolve("set result", ActionStatusDone, payload)
}

// SetError resolves a running action with an error payload.
func (a *ClientAction) SetError(payload map[string]any) error {
	return a.resolve("set error", ActionStatusError, payload)
}

func (a *ClientAction) resolve(op string, to ActionStatus, payload map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != ActionStatusRunning {
		return &UnexpectedStatusError{Op: op, Current: string(a.status)}
	}

	if payload == nil {
		payload = map[string]any{}
	}

	a.status = to
	if to == ActionStatusDone {
		a.result = maps.Clone(payload)
	} else {
		a.failure = maps.Clone(payload)
	}

	a.updatedAt = time.Now().UTC()
	close(a.done)

	return nil
}

// IsFinished reports whether the action is done or errored.
func (a *ClientAction) IsFinished() bool {
	return a.Status().IsTerminal()
}

// Done is closed when the action reaches a terminal state.
func (a *ClientAction) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the action is finished or ctx ends.
func (a *ClientAction) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActionSnapshot is a point-in-time copy of a client action.
type ActionSnapshot struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	Name      string         `json:"name"`
	Args      map[string]any `json:"args"`
	Status    ActionStatus   `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Error     map[string]any `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (a *ClientAction) Snapshot() ActionSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return ActionSnapshot{
		ID:        a.id,
		TaskID:    a.taskID,
		Name:      a.name,
		Args:      maps.Clone(a.args),
		Status:    a.status,
		Result:    maps.Clone(a.result),
		Error:     maps.Clone(a.failure),
		CreatedAt: a.createdAt,
		UpdatedAt: a.updatedAt,
	}
}
