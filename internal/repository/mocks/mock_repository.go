// Package mocks provides testify mocks of repository interfaces.
package mocks

import (
	"context"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"

	"github.com/stretchr/testify/mock"
)

var _ repository.TodoRepository = (*TodoRepository)(nil)

// TodoRepository is a testify mock of repository.TodoRepository.
type TodoRepository struct {
	mock.Mock
}

func (m *TodoRepository) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *TodoRepository) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *TodoRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*todo.Todo), args.Error(1)
}

func (m *TodoRepository) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *TodoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
