package models

import (
	"errors"
	"fmt"

	"github.com/dukex/dno/pkg/schema"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrActionTimeout is returned to a use case when a client action is not
	// resolved within the configured wait.
	ErrActionTimeout = errors.New("client action wait timed out")

	// ErrCancelled is recorded when the engine shuts down under a running use case.
	ErrCancelled = errors.New("use case cancelled")
)

// NotFoundError reports an unknown use-case kind, task or client action.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound and any *NotFoundError for the same resource whose
// ID is empty or equal.
func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}

	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}

	return t.Resource == e.Resource && (t.ID == "" || t.ID == e.ID)
}

// UnexpectedStatusError reports a state transition attempted from the wrong state.
type UnexpectedStatusError struct {
	Op      string
	Current string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %q", e.Op, e.Current)
}

// DeclarationError reports a malformed use-case or action-field declaration.
type DeclarationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *DeclarationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bad declaration of %s: %s", e.Kind, e.Reason)
	}

	return fmt.Sprintf("bad declaration of %s.%s: %s", e.Kind, e.Field, e.Reason)
}

// ConstructionError reports bad, missing or mistyped use-case attributes.
type ConstructionError struct {
	Kind   string
	Fields []schema.FieldError
}

func (e *ConstructionError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.String())
	}

	return fmt.Sprintf("bad arguments for %s: %v", e.Kind, names)
}

// Unwrap exposes the field list as a *schema.ValidationError.
func (e *ConstructionError) Unwrap() error {
	return &schema.ValidationError{Fields: e.Fields}
}

// WorkflowError is recorded when a use case's business logic fails.
type WorkflowError struct {
	Kind    string
	TaskID  string
	Err     error
	Details map[string]any
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("use case %s (%s) failed: %v", e.Kind, e.TaskID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Payload renders the error as the structured payload stored on a failed use case.
func (e *WorkflowError) Payload() map[string]any {
	payload := map[string]any{
		"type":    errorType(e.Err),
		"message": e.Err.Error(),
	}

	if fields := schema.FieldErrors(e.Err); fields != nil {
		payload["fields"] = fields
	}

	var failed *ActionFailedError
	if errors.As(e.Err, &failed) {
		payload["action_id"] = failed.ActionID
		payload["action_error"] = failed.Payload
	}

	for k, v := range e.Details {
		payload[k] = v
	}

	return payload
}

func errorType(err error) string {
	var failed *ActionFailedError

	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrActionTimeout):
		return "action_timeout"
	case errors.As(err, &failed):
		return "action_failed"
	case schema.IsValidationError(err):
		return "validation_error"
	default:
		return "workflow_error"
	}
}

// ActionFailedError is returned to a use case awaiting an action that the
// external actor resolved with an error.
type ActionFailedError struct {
	ActionID string
	Name     string
	Payload  map[string]any
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("client action %s (%s) failed: %v", e.Name, e.ActionID, e.Payload)
}

// IsNotFound reports whether err is a not-found error of any resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnexpectedStatus reports whether err is an *UnexpectedStatusError.
func IsUnexpectedStatus(err error) bool {
	var target *UnexpectedStatusError

	return errors.As(err, &target)
}

// IsConstruction reports whether err is a *ConstructionError.
func IsConstruction(err error) bool {
	var target *ConstructionError

	return errors.As(err, &target)
}

// IsDeclaration reports whether err is a *DeclarationError.
func IsDeclaration(err error) bool {
	var target *DeclarationError

	return errors.As(err, &target)
}

// CurrentStatus extracts the status carried by an *UnexpectedStatusError.
func CurrentStatus(err error) (string, bool) {
	var target *UnexpectedStatusError
	if errors.As(err, &target) {
		return target.Current, true
	}

	return "", false
}
