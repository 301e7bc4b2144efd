package persistence

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cursor-todo/internal/config"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/infrastructure/persistence/dynamo"
	"cursor-todo/internal/infrastructure/persistence/memory"
	"cursor-todo/internal/infrastructure/persistence/postgres"
	"cursor-todo/internal/infrastructure/persistence/sqlite"
	"cursor-todo/internal/repository"
)

const tracerName = "cursor-todo/persistence"

// Repository is what the service layer and the health endpoint need.
type Repository interface {
	repository.TodoRepository
	repository.HealthChecker
}

type decoratedRepository struct {
	repository.TodoRepository
	health repository.TodoRepository
}

func (d decoratedRepository) Ping(ctx context.Context) error {
	return ping(ctx, d.health)
}

// store is a driver-specific TodoRepository plus its instrumentation identity.
type store struct {
	repo      repository.TodoRepository
	system    string
	component string
	close     func()
}

// NewRepository opens the configured store, migrates it when asked and wraps
// it in the decorator chain. The returned cleanup releases connections.
func NewRepository(
	ctx context.Context,
	cfg *config.Config,
	tp trace.TracerProvider,
	collector *observability.Collector,
	logger *zap.Logger,
) (Repository, func(), error) {
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if m, ok := s.repo.(repository.Migrator); ok && cfg.Database.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			s.close()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Database.Driver, err)
		}
	}

	inst := observability.NewDBInstrumentation(tp.Tracer(tracerName), collector, s.system, s.component)
	chain := NewDecoratorChain(cfg, logger)

	logger.Info("repository ready",
		zap.String("driver", cfg.Database.Driver),
		zap.String("db.system", s.system),
		zap.String("table", cfg.Database.TableName),
	)
	return decoratedRepository{TodoRepository: chain.Decorate(s.repo, inst), health: s.repo}, s.close, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	db := cfg.Database
	switch db.Driver {
	case config.DriverMemory:
		return &store{repo: memory.NewTodoStore(), system: "memory", component: "memory", close: func() {}}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, db.URL, db.MaxConns)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewTodoStore(pool, db.TableName, logger.Named("postgres"))
		return &store{repo: repo, system: "postgresql", component: "pgx", close: func() { _ = repo.Close() }}, nil

	case config.DriverSQLite:
		conn, err := sqlite.Open(db.Path)
		if err != nil {
			return nil, err
		}
		repo := sqlite.NewTodoStore(conn, db.TableName, logger.Named("sqlite"))
		return &store{repo: repo, system: "sqlite", component: "sqlx", close: func() { _ = repo.Close() }}, nil

	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, db.Region, db.Endpoint)
		if err != nil {
			return nil, err
		}
		repo := dynamo.NewTodoStore(client, db.TableName, logger.Named("dynamodb"))
		return &store{repo: repo, system: "dynamodb", component: "aws-sdk-go-v2", close: func() {}}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
}
