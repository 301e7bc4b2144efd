package persistence

import (
	"go.uber.org/zap"

	"cursor-todo/internal/config"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/repository"
)

// DecoratorChain layers cross-cutting behaviour over a store.
type DecoratorChain struct {
	config *config.Config
	logger *zap.Logger
}

func NewDecoratorChain(cfg *config.Config, logger *zap.Logger) *DecoratorChain {
	return &DecoratorChain{config: cfg, logger: logger}
}

// Decorate applies, from the inside out: instrumentation, retry, circuit breaker.
// Instrumentation stays innermost so every physical attempt is measured once.
func (dc *DecoratorChain) Decorate(base repository.TodoRepository, inst *observability.DBInstrumentation) repository.TodoRepository {
	var decorated repository.TodoRepository = NewInstrumentedRepository(base, inst)

	if retry := dc.config.Retry; retry.MaxRetries > 0 {
		decorated = NewRetryRepository(decorated, RetryConfig{
			MaxRetries:    retry.MaxRetries,
			InitialDelay:  retry.InitialDelay,
			MaxDelay:      retry.MaxDelay,
			BackoffFactor: retry.BackoffFactor,
			JitterFactor:  0.1,
		}, dc.logger.Named("retry"))
		dc.logger.Debug("applied retry decorator", zap.Int("max_retries", retry.MaxRetries))
	}

	if cb := dc.config.CircuitBreaker; cb.Enabled {
		decorated = NewCircuitBreakerRepository(decorated, CircuitBreakerConfig{
			Name:            "todo-repository",
			MaxRequests:     cb.MaxRequests,
			Interval:        cb.Interval,
			Timeout:         cb.Timeout,
			FailureRatio:    cb.FailureRatio,
			MinimumRequests: cb.MinimumRequests,
		}, dc.logger.Named("circuit_breaker"))
		dc.logger.Debug("applied circuit breaker decorator")
	}

	return decorated
}
