// Package persistence assembles the todo repository: a driver-specific store
// wrapped in instrumentation and the resilience decorators.
package persistence

import (
	"context"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/repository"
)

// InstrumentedRepository measures every call to the wrapped store. It sits
// directly on the store so each physical call yields one sample and one span.
type InstrumentedRepository struct {
	inner repository.TodoRepository
	inst  *observability.DBInstrumentation
}

var (
	_ repository.TodoRepository = (*InstrumentedRepository)(nil)
	_ repository.HealthChecker  = (*InstrumentedRepository)(nil)
)

func NewInstrumentedRepository(inner repository.TodoRepository, inst *observability.DBInstrumentation) *InstrumentedRepository {
	return &InstrumentedRepository{inner: inner, inst: inst}
}

func (r *InstrumentedRepository) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	return observability.TrackDBOperation(ctx, r.inst, repository.OpCreate, repository.TodoTable,
		func(ctx context.Context) (*todo.Todo, error) {
			return r.inner.Create(ctx, t)
		})
}

// FindByID records a lookup that matches no row as a successful query with
// zero rows. The not-found error still reaches the caller unchanged.
func (r *InstrumentedRepository) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	var notFound error
	found, err := observability.TrackDBOperation(ctx, r.inst, repository.OpFindUnique, repository.TodoTable,
		func(ctx context.Context) (*todo.Todo, error) {
			t, err := r.inner.FindByID(ctx, id)
			if repository.IsNotFound(err) {
				notFound = err
				return nil, nil
			}
			return t, err
		})
	if notFound != nil {
		return nil, notFound
	}
	return found, err
}

func (r *InstrumentedRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	return observability.TrackDBOperation(ctx, r.inst, repository.OpFindMany, repository.TodoTable,
		func(ctx context.Context) ([]*todo.Todo, error) {
			return r.inner.FindAll(ctx)
		})
}

func (r *InstrumentedRepository) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	return observability.TrackDBOperation(ctx, r.inst, repository.OpUpdate, repository.TodoTable,
		func(ctx context.Context) (*todo.Todo, error) {
			return r.inner.Update(ctx, t)
		})
}

func (r *InstrumentedRepository) Delete(ctx context.Context, id string) error {
	return observability.TrackDBExec(ctx, r.inst, repository.OpDelete, repository.TodoTable,
		func(ctx context.Context) error {
			return r.inner.Delete(ctx, id)
		})
}

// Ping is passed through unmeasured; health checks would otherwise dominate
// the query series.
func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	return ping(ctx, r.inner)
}

func ping(ctx context.Context, repo repository.TodoRepository) error {
	if hc, ok := repo.(repository.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
