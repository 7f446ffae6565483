package mocks

import (
	"context"

	"github.com/dukex/dno/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of persistence.Store.
type MockStore[T persistence.Entity] struct {
	mock.Mock
}

func (m *MockStore[T]) Add(ctx context.Context, entity T) error {
	args := m.Called(ctx, entity)

	return args.Error(0)
}

func (m *MockStore[T]) Get(ctx context.Context, id string) (T, error) {
	args := m.Called(ctx, id)

	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}

	return args.Get(0).(T), args.Error(1)
}

func (m *MockStore[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockStore[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]T), args.Error(1)
}

func (m *MockStore[T]) Len(ctx context.Context) int {
	args := m.Called(ctx)

	return args.Int(0)
}

var _ persistence.Store[persistence.Entity] = (*MockStore[persistence.Entity])(nil)
