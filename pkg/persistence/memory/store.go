// Package memory provides process-lifetime, mutex guarded stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dukex/dno/pkg/models"
	"github.com/dukex/dno/pkg/persistence"
)

// Store is an in-memory persistence.Store. List returns entities in
// insertion order.
type Store[T persistence.Entity] struct {
	resource string
	mu       sync.RWMutex
	items    map[string]T
	order    map[string]uint64
	seq      uint64
}

// NewStore creates an empty store; resource names the entity in errors.
func NewStore[T persistence.Entity](resource string) *Store[T] {
	return &Store[T]{
		resource: resource,
		items:    make(map[string]T),
		order:    make(map[string]uint64),
	}
}

// NewTaskTable creates the table of in-flight use-case instances.
func NewTaskTable[T persistence.Entity]() *Store[T] {
	return NewStore[T](persistence.ErrTaskNotFound.Resource)
}

// NewActionStore creates the store of client actions.
func NewActionStore() *Store[*models.ClientAction] {
	return NewStore[*models.ClientAction](persistence.ErrActionNotFound.Resource)
}

func (s *Store[T]) Add(_ context.Context, entity T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := entity.ID()
	if _, exists := s.items[id]; exists {
		return persistence.NewStoreError("Add", s.resource, id, persistence.ErrAlreadyExists)
	}

	s.seq++
	s.items[id] = entity
	s.order[id] = s.seq

	return nil
}

func (s *Store[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.items[id]
	if !ok {
		var zero T

		return zero, persistence.NewStoreError("Get", s.resource, id, s.notFound(id))
	}

	return entity, nil
}

func (s *Store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return persistence.NewStoreError("Delete", s.resource, id, s.notFound(id))
	}

	delete(s.items, id)
	delete(s.order, id)

	return nil
}

func (s *Store[T]) List(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.items))
	for _, entity := range s.items {
		out = append(out, entity)
	}

	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID()] < s.order[out[j].ID()]
	})

	return out, nil
}

func (s *Store[T]) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

func (s *Store[T]) notFound(id string) error {
	return &models.NotFoundError{Resource: s.resource, ID: id}
}
