// Package memory provides an in-process TodoRepository.
package memory

import (
	"context"
	"sync"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

var _ repository.TodoRepository = (*TodoStore)(nil)

// TodoStore keeps todos in a map. Values are copied on the way in and out so
// callers never share memory with the store.
type TodoStore struct {
	mu    sync.RWMutex
	todos map[string]*todo.Todo
}

// NewTodoStore creates an empty store.
func NewTodoStore() *TodoStore {
	return &TodoStore{
		todos: make(map[string]*todo.Todo),
	}
}

// Create stores a new todo
func (s *TodoStore) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.todos[t.ID]; exists {
		return nil, repository.NewConflict("todo", t.ID, "already exists")
	}
	s.todos[t.ID] = t.Clone()
	return t.Clone(), nil
}

// FindByID retrieves a todo by ID
func (s *TodoStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.todos[id]
	if !exists {
		return nil, repository.NewNotFound("todo", id)
	}
	return t.Clone(), nil
}

// FindAll returns every todo, newest first
func (s *TodoStore) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*todo.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	todo.SortNewestFirst(out)
	return out, nil
}

// Update overwrites the mutable fields of an existing todo
func (s *TodoStore) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.todos[t.ID]
	if !exists {
		return nil, repository.NewNotFound("todo", t.ID)
	}
	updated := existing.Clone()
	updated.Title = t.Title
	updated.Completed = t.Completed
	updated.UpdatedAt = t.UpdatedAt
	s.todos[t.ID] = updated
	return updated.Clone(), nil
}

// Delete removes a todo
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.todos[id]; !exists {
		return repository.NewNotFound("todo", id)
	}
	delete(s.todos, id)
	return nil
}

// Ping always succeeds.
func (s *TodoStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
