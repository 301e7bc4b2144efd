package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cursor-todo/internal/config"
	"cursor-todo/internal/handlers"
	"cursor-todo/internal/infrastructure/messaging"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/infrastructure/persistence"
	"cursor-todo/internal/service/todo"
)

// provideAtomicLevel parses the configured level into a level that can be
// changed at runtime by the config watcher.
func provideAtomicLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	return level, nil
}

// provideLogger creates a JSON logger in production and a console logger elsewhere.
func provideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build(zap.Fields(
		zap.String("service", cfg.Tracing.ServiceName),
		zap.String("environment", string(cfg.Environment)),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// provideCollector returns the process-wide registry unless a different
// namespace is configured.
func provideCollector(cfg *config.Config) *observability.Collector {
	if ns := cfg.Metrics.Namespace; ns != "" && ns != observability.DefaultNamespace {
		return observability.NewCollector(ns, observability.WithRuntimeMetrics())
	}
	return observability.DefaultCollector()
}

func provideRepository(
	ctx context.Context,
	cfg *config.Config,
	tp *observability.TracerProvider,
	collector *observability.Collector,
	logger *zap.Logger,
) (persistence.Repository, func(), error) {
	return persistence.NewRepository(ctx, cfg, tp, collector, logger.Named("persistence"))
}

func provideTodoService(repo persistence.Repository, collector *observability.Collector, logger *zap.Logger) todo.Service {
	return todo.NewService(repo, collector, logger.Named("todo"))
}

// providePublisher always logs tracked events and also forwards them to
// EventBridge when an event bus is configured.
func providePublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (messaging.Publisher, error) {
	logPublisher := messaging.NewLogPublisher(logger.Named("track"))
	if cfg.Events.EventBusName == "" {
		return logPublisher, nil
	}

	client, err := messaging.NewEventBridgeClient(ctx, cfg.Database.Region)
	if err != nil {
		return nil, err
	}
	logger.Info("forwarding tracked events", zap.String("event_bus", cfg.Events.EventBusName))
	return messaging.MultiPublisher{
		logPublisher,
		messaging.NewEventBridgePublisher(client, cfg.Events.EventBusName, cfg.Events.Source),
	}, nil
}

func provideTodoHandler(svc todo.Service, cfg *config.Config, logger *zap.Logger) *handlers.TodoHandler {
	return handlers.NewTodoHandler(svc, cfg.IsProduction(), logger)
}

func provideSystemHandler(
	collector *observability.Collector,
	cfg *config.Config,
	repo persistence.Repository,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *handlers.SystemHandler {
	return handlers.NewSystemHandler(collector, cfg.Metrics.Path, repo, publisher, logger)
}
