package persistence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

// RetryConfig configures exponential backoff for idempotent reads.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// RetryRepository re-attempts FindByID and FindAll on transient failures.
// Writes pass straight through: a timed-out insert may already have landed.
type RetryRepository struct {
	inner  repository.TodoRepository
	config RetryConfig
	logger *zap.Logger
}

var (
	_ repository.TodoRepository = (*RetryRepository)(nil)
	_ repository.HealthChecker  = (*RetryRepository)(nil)
)

func NewRetryRepository(inner repository.TodoRepository, config RetryConfig, logger *zap.Logger) *RetryRepository {
	return &RetryRepository{
		inner:  inner,
		config: config,
		logger: logger,
	}
}

func (r *RetryRepository) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	return r.inner.Create(ctx, t)
}

func (r *RetryRepository) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	var result *todo.Todo
	err := r.executeWithRetry(ctx, repository.OpFindUnique, func() error {
		var err error
		result, err = r.inner.FindByID(ctx, id)
		return err
	})
	return result, err
}

func (r *RetryRepository) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	var result []*todo.Todo
	err := r.executeWithRetry(ctx, repository.OpFindMany, func() error {
		var err error
		result, err = r.inner.FindAll(ctx)
		return err
	})
	return result, err
}

func (r *RetryRepository) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	return r.inner.Update(ctx, t)
}

func (r *RetryRepository) Delete(ctx context.Context, id string) error {
	return r.inner.Delete(ctx, id)
}

func (r *RetryRepository) Ping(ctx context.Context) error {
	return ping(ctx, r.inner)
}

func (r *RetryRepository) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("operation succeeded after retry",
					zap.String("operation", operation),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err

		if attempt == r.config.MaxRetries || !IsTransient(err) {
			break
		}

		delay := r.calculateDelay(attempt)
		r.logger.Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", operation, ctx.Err())
		}
	}
	return lastErr
}

func (r *RetryRepository) calculateDelay(attempt int) time.Duration {
	base := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if max := float64(r.config.MaxDelay); max > 0 && base > max {
		base = max
	}
	jitter := r.config.JitterFactor * base * (rand.Float64()*2 - 1)
	if d := base + jitter; d > 0 {
		return time.Duration(d)
	}
	return 0
}

// IsTransient reports whether a failed read is worth repeating.
func IsTransient(err error) bool {
	switch {
	case err == nil,
		repository.IsNotFound(err),
		repository.IsConflict(err),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
