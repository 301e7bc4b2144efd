package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("database circuit breaker is open")

// CircuitBreakerConfig holds the gobreaker trip policy.
type CircuitBreakerConfig struct {
	Name            string
	MaxRequests     uint32
	Interval        time.Duration
	Timeout         time.Duration
	FailureRatio    float64
	MinimumRequests uint32
}

// CircuitBreakerRepository fails fast once the store keeps erroring.
// NotFound and Conflict are answers, not failures, and never trip it.
type CircuitBreakerRepository struct {
	inner  repository.TodoRepository
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

var (
	_ repository.TodoRepository = (*CircuitBreakerRepository)(nil)
	_ repository.HealthChecker  = (*CircuitBreakerRepository)(nil)
)

func NewCircuitBreakerRepository(inner repository.TodoRepository, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerRepository {
	r := &CircuitBreakerRepository{inner: inner, logger: logger}
	r.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinimumRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				repository.IsNotFound(err) ||
				repository.IsConflict(err) ||
				errors.Is(err, context.Canceled)
		},
	})
	return r
}

// State exposes the breaker state for health reporting.
func (r *CircuitBreakerRepository) State() gobreaker.State {
	return r.cb.State()
}

func (r *CircuitBreakerRepository) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := r.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return out, err
}

func (r *CircuitBreakerRepository) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	out, err := r.execute(func() (interface{}, error) {
		return r.inner.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out.(*todo.Todo), nil
}

func (r *CircuitBreakerRepository) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	out, err := r.execute(func() (interface{}, error) {
		return r.inner.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*todo.Todo), nil
}

func (r *CircuitBreakerRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	out, err := r.execute(func() (interface{}, error) {
		return r.inner.FindAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*todo.Todo), nil
}

func (r *CircuitBreakerRepository) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	out, err := r.execute(func() (interface{}, error) {
		return r.inner.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out.(*todo.Todo), nil
}

func (r *CircuitBreakerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.execute(func() (interface{}, error) {
		return nil, r.inner.Delete(ctx, id)
	})
	return err
}

// Ping bypasses the breaker so health checks see the real database state.
func (r *CircuitBreakerRepository) Ping(ctx context.Context) error {
	return ping(ctx, r.inner)
}
