// Package persistence provides the storage abstraction for in-flight use cases
// (the task table) and client actions (the action store).
package persistence

import "context"

// Entity is anything addressable by id.
type Entity interface {
	ID() string
}

// Store is a keyed table of entities. Implementations must be safe for
// concurrent use.
type Store[T Entity] interface {
	Add(ctx context.Context, entity T) error
	Get(ctx context.Context, id string) (T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
	Len(ctx context.Context) int
}
