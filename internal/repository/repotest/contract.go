// Package repotest holds behaviour tests shared by every TodoRepository implementation.
package repotest

import (
	"context"
	"testing"
	"time"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) repository.TodoRepository

// NewTodo builds a todo created at the given offset from a fixed base time.
func NewTodo(title string, offset time.Duration) *todo.Todo {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(offset)
	return &todo.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// RunTodoRepositoryContract exercises the TodoRepository contract.
func RunTodoRepositoryContract(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("Should create and find a todo", func(t *testing.T) {
		repo := newRepo(t)
		item := NewTodo("buy milk", 0)

		created, err := repo.Create(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, item.ID, created.ID)
		assert.Equal(t, "buy milk", created.Title)
		assert.False(t, created.Completed)

		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, found.ID)
		assert.Equal(t, item.Title, found.Title)
		assert.WithinDuration(t, item.CreatedAt, found.CreatedAt, time.Millisecond)
	})

	t.Run("Should report unknown ids as not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, uuid.NewString())
		assert.True(t, repository.IsNotFound(err))

		_, err = repo.Update(ctx, NewTodo("ghost", 0))
		assert.True(t, repository.IsNotFound(err))

		err = repo.Delete(ctx, uuid.NewString())
		assert.True(t, repository.IsNotFound(err))
	})

	t.Run("Should list newest first", func(t *testing.T) {
		repo := newRepo(t)
		oldest := NewTodo("oldest", 0)
		newest := NewTodo("newest", 2*time.Hour)
		middle := NewTodo("middle", time.Hour)
		for _, item := range []*todo.Todo{oldest, newest, middle} {
			_, err := repo.Create(ctx, item)
			require.NoError(t, err)
		}

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"newest", "middle", "oldest"},
			[]string{all[0].Title, all[1].Title, all[2].Title})
	})

	t.Run("Should list nothing when empty", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Should update completed and updatedAt only", func(t *testing.T) {
		repo := newRepo(t)
		item := NewTodo("write report", 0)
		_, err := repo.Create(ctx, item)
		require.NoError(t, err)

		changed := item.Clone()
		changed.Toggle(func() time.Time { return item.CreatedAt.Add(time.Minute) })

		updated, err := repo.Update(ctx, changed)
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.WithinDuration(t, item.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.WithinDuration(t, changed.UpdatedAt, updated.UpdatedAt, time.Millisecond)

		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, found.Completed)
	})

	t.Run("Should delete a todo exactly once", func(t *testing.T) {
		repo := newRepo(t)
		item := NewTodo("temporary", 0)
		_, err := repo.Create(ctx, item)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, item.ID))

		_, err = repo.FindByID(ctx, item.ID)
		assert.True(t, repository.IsNotFound(err))
		assert.True(t, repository.IsNotFound(repo.Delete(ctx, item.ID)))
	})

	t.Run("Should not alias stored values", func(t *testing.T) {
		repo := newRepo(t)
		item := NewTodo("original", 0)
		created, err := repo.Create(ctx, item)
		require.NoError(t, err)

		item.Title = "mutated"
		created.Title = "mutated too"

		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", found.Title)
	})
}
