// Package postgres implements the todo repository on PostgreSQL using pgx and goqu.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

const (
	dialectPostgres = "postgres"
	colID           = "id"
	colTitle        = "title"
	colCompleted    = "completed"
	colCreatedAt    = "created_at"
	colUpdatedAt    = "updated_at"
	pgUniqueViolate = "23505"
)

var selectColumns = []interface{}{colID, colTitle, colCompleted, colCreatedAt, colUpdatedAt}

var _ repository.TodoRepository = (*TodoStore)(nil)

// TodoStore is a TodoRepository backed by a pgx connection pool.
type TodoStore struct {
	pool    *pgxpool.Pool
	table   string
	builder goqu.DialectWrapper
	logger  *zap.Logger
}

type todoRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Completed bool      `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r todoRow) toDomain() *todo.Todo {
	return &todo.Todo{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// Connect opens a pool for databaseURL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewTodoStore creates a store for the given table.
func NewTodoStore(pool *pgxpool.Pool, table string, logger *zap.Logger) *TodoStore {
	return &TodoStore{
		pool:    pool,
		table:   table,
		builder: goqu.Dialect(dialectPostgres),
		logger:  logger,
	}
}

// Migrate creates the table and its ordering index when missing.
func (s *TodoStore) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			id TEXT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (created_at DESC)`, s.table+"_created_at_idx", s.table),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	s.logger.Info("database schema ready", zap.String("table", s.table))
	return nil
}

// Create inserts a todo
func (s *TodoStore) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	query, args, err := s.builder.Insert(s.table).
		Rows(goqu.Record{
			colID:        t.ID,
			colTitle:     t.Title,
			colCompleted: t.Completed,
			colCreatedAt: t.CreatedAt,
			colUpdatedAt: t.UpdatedAt,
		}).
		Returning(selectColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	row, err := s.queryOne(ctx, query, args)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolate {
			return nil, repository.NewConflict("todo", t.ID, "already exists")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// FindByID retrieves a todo by ID
func (s *TodoStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	query, args, err := s.builder.From(s.table).
		Select(selectColumns...).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	row, err := s.queryOne(ctx, query, args)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.NewNotFound("todo", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// FindAll returns every todo, newest first
func (s *TodoStore) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	query, args, err := s.builder.From(s.table).
		Select(selectColumns...).
		Order(goqu.I(colCreatedAt).Desc(), goqu.I(colID).Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[todoRow])
	if err != nil {
		return nil, err
	}

	out := make([]*todo.Todo, 0, len(collected))
	for _, r := range collected {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Update overwrites title, completed and updated_at
func (s *TodoStore) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	query, args, err := s.builder.Update(s.table).
		Set(goqu.Record{
			colTitle:     t.Title,
			colCompleted: t.Completed,
			colUpdatedAt: t.UpdatedAt,
		}).
		Where(goqu.C(colID).Eq(t.ID)).
		Returning(selectColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	row, err := s.queryOne(ctx, query, args)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.NewNotFound("todo", t.ID)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Delete removes a todo
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.builder.Delete(s.table).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.NewNotFound("todo", id)
	}
	return nil
}

// Ping checks connectivity.
func (s *TodoStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *TodoStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *TodoStore) queryOne(ctx context.Context, query string, args []interface{}) (todoRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return todoRow{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[todoRow])
}
