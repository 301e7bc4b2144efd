// Package sqlite implements the todo repository on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

const (
	driverName    = "sqlite"
	dialectSQLite = "sqlite3"
	colID         = "id"
	colTitle      = "title"
	colCompleted  = "completed"
	colCreatedAt  = "created_at"
	colUpdatedAt  = "updated_at"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var selectColumns = []interface{}{colID, colTitle, colCompleted, colCreatedAt, colUpdatedAt}

var _ repository.TodoRepository = (*TodoStore)(nil)

// TodoStore is a TodoRepository backed by SQLite through sqlx.
type TodoStore struct {
	db      *sqlx.DB
	table   string
	builder goqu.DialectWrapper
	logger  *zap.Logger
}

type todoRow struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	Completed bool   `db:"completed"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r todoRow) toDomain() (*todo.Todo, error) {
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", r.ID, err)
	}
	updatedAt, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at of %s: %w", r.ID, err)
	}
	return &todo.Todo{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*sqlx.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return db, nil
}

// NewTodoStore creates a store for the given table.
func NewTodoStore(db *sqlx.DB, table string, logger *zap.Logger) *TodoStore {
	return &TodoStore{
		db:      db,
		table:   table,
		builder: goqu.Dialect(dialectSQLite),
		logger:  logger,
	}
}

// Migrate creates the table and its ordering index when missing.
func (s *TodoStore) Migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]q (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS %[2]q ON %[1]q (created_at DESC);
	`, s.table, s.table+"_created_at_idx")

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
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
			colCreatedAt: formatTime(t.CreatedAt),
			colUpdatedAt: formatTime(t.UpdatedAt),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, repository.NewConflict("todo", t.ID, "already exists")
		}
		return nil, err
	}
	return s.FindByID(ctx, t.ID)
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

	var row todoRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewNotFound("todo", id)
		}
		return nil, err
	}
	return row.toDomain()
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

	var rows []todoRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*todo.Todo, 0, len(rows))
	for _, r := range rows {
		item, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Update overwrites title, completed and updated_at
func (s *TodoStore) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	query, args, err := s.builder.Update(s.table).
		Set(goqu.Record{
			colTitle:     t.Title,
			colCompleted: t.Completed,
			colUpdatedAt: formatTime(t.UpdatedAt),
		}).
		Where(goqu.C(colID).Eq(t.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, repository.NewNotFound("todo", t.ID)
	}
	return s.FindByID(ctx, t.ID)
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

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewNotFound("todo", id)
	}
	return nil
}

// Ping checks the database handle.
func (s *TodoStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *TodoStore) Close() error {
	return s.db.Close()
}
