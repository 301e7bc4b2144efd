package memory_test

import (
	"context"
	"testing"

	"cursor-todo/internal/infrastructure/persistence/memory"
	"cursor-todo/internal/repository"
	"cursor-todo/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoStoreContract(t *testing.T) {
	repotest.RunTodoRepositoryContract(t, func(t *testing.T) repository.TodoRepository {
		return memory.NewTodoStore()
	})
}

func TestTodoStoreRejectsDuplicateIDs(t *testing.T) {
	store := memory.NewTodoStore()
	item := repotest.NewTodo("once", 0)

	_, err := store.Create(context.Background(), item)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), item)
	assert.True(t, repository.IsConflict(err))
}

func TestTodoStoreHonoursCancelledContext(t *testing.T) {
	store := memory.NewTodoStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
