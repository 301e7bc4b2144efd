// Package todo provides the todo use cases behind the HTTP handlers.
package todo

import (
	"context"

	"go.uber.org/zap"

	domain "cursor-todo/internal/domain/todo"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/repository"
	appErrors "cursor-todo/pkg/errors"
)

// Service defines the todo operations exposed over HTTP.
type Service interface {
	// CreateTodo validates the title and persists a new incomplete todo.
	CreateTodo(ctx context.Context, title string) (*domain.Todo, error)

	// ListTodos returns every todo, newest first.
	ListTodos(ctx context.Context) ([]*domain.Todo, error)

	// ToggleTodo flips the completed flag of an existing todo.
	ToggleTodo(ctx context.Context, id string) (*domain.Todo, error)

	// DeleteTodo removes a todo.
	DeleteTodo(ctx context.Context, id string) error
}

// Counters is the part of the metric registry the service writes to.
type Counters interface {
	IncrementCounter(name string, labels map[string]string) error
}

type service struct {
	repo    repository.TodoRepository
	metrics Counters
	logger  *zap.Logger
	now     domain.Clock
}

// Option customises a Service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now domain.Clock) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo repository.TodoRepository, metrics Counters, logger *zap.Logger, opts ...Option) Service {
	s := &service{repo: repo, metrics: metrics, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateTodo(ctx context.Context, title string) (*domain.Todo, error) {
	t, err := domain.NewTodo(title, s.now)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, s.storeError(err, "failed to create todo", zap.String("todo_id", t.ID))
	}

	s.count(observability.MetricTodosCreated)
	s.logger.Info("todo created", zap.String("todo_id", created.ID))
	return created, nil
}

func (s *service) ListTodos(ctx context.Context) ([]*domain.Todo, error) {
	todos, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeError(err, "failed to list todos")
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}
	return todos, nil
}

func (s *service) ToggleTodo(ctx context.Context, id string) (*domain.Todo, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load todo", zap.String("todo_id", id))
	}

	existing.Toggle(s.now)

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, s.storeError(err, "failed to update todo", zap.String("todo_id", id))
	}

	if updated.Completed {
		s.count(observability.MetricTodosCompleted)
	}
	s.logger.Info("todo toggled",
		zap.String("todo_id", id),
		zap.Bool("completed", updated.Completed),
	)
	return updated, nil
}

func (s *service) DeleteTodo(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError(err, "failed to delete todo", zap.String("todo_id", id))
	}

	s.count(observability.MetricTodosDeleted)
	s.logger.Info("todo deleted", zap.String("todo_id", id))
	return nil
}

func (s *service) count(name string) {
	if err := s.metrics.IncrementCounter(name, nil); err != nil {
		s.logger.Warn("failed to increment counter", zap.String("metric", name), zap.Error(err))
	}
}

// storeError translates repository failures into application errors.
func (s *service) storeError(err error, msg string, fields ...zap.Field) error {
	if repository.IsNotFound(err) {
		return &appErrors.AppError{Type: appErrors.ErrorTypeNotFound, Message: "Todo not found", Err: err}
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return appErrors.NewDependency(msg, err)
}
