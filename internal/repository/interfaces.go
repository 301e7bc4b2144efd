// Package repository defines the data access contract for todos.
package repository

import (
	"context"

	"cursor-todo/internal/domain/todo"
)

// TodoTable is the table (collection) name used in metric labels and span attributes.
const TodoTable = "todos"

// Operation names reported by instrumented stores.
const (
	OpCreate     = "create"
	OpFindUnique = "findUnique"
	OpFindMany   = "findMany"
	OpUpdate     = "update"
	OpDelete     = "delete"
)

// TodoRepository persists todos. Implementations must be safe for concurrent use.
type TodoRepository interface {
	// Create stores a new todo and returns the stored copy.
	Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error)
	// FindByID returns ErrNotFound when no todo has the id.
	FindByID(ctx context.Context, id string) (*todo.Todo, error)
	// FindAll returns every todo ordered by CreatedAt descending.
	FindAll(ctx context.Context) ([]*todo.Todo, error)
	// Update overwrites title, completed and updatedAt. ErrNotFound when absent.
	Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error)
	// Delete removes the todo. ErrNotFound when no row was removed.
	Delete(ctx context.Context, id string) error
}

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Migrator is implemented by stores that can create their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}
