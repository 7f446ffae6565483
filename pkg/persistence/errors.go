package persistence

import (
	"errors"
	"fmt"

	"github.com/dukex/dno/pkg/models"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTaskNotFound indicates no use-case instance is registered under the id.
	ErrTaskNotFound = &models.NotFoundError{Resource: "task"}

	// ErrActionNotFound indicates no client action is stored under the id.
	ErrActionNotFound = &models.NotFoundError{Resource: "client action"}

	// ErrAlreadyExists indicates an entity with the same id is already stored.
	ErrAlreadyExists = errors.New("entity already exists")
)

// StoreError wraps store errors with the operation and the entity id.
type StoreError struct {
	Op       string // Operation being performed (e.g., "Get", "Add", "Delete")
	Resource string
	ID       string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Resource, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, resource, id string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		Resource: resource,
		ID:       id,
		Err:      err,
	}
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsActionNotFound checks if an error indicates a client action was not found.
func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}
