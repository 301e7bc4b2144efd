package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cursor-todo/internal/client"
)

type recordingSender struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (s *recordingSender) Track(_ context.Context, event string, _ map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func TestTracker(t *testing.T) {
	t.Run("Should deliver every event", func(t *testing.T) {
		sender := &recordingSender{}
		tracker := client.NewTracker(sender, zap.NewNop())

		tracker.Track("a", nil)
		tracker.Track("b", map[string]interface{}{"k": "v"})
		tracker.Flush()

		assert.ElementsMatch(t, []string{"a", "b"}, sender.events)
	})

	t.Run("Should log delivery failures instead of returning them", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		sender := &recordingSender{err: errors.New("offline")}
		tracker := client.NewTracker(sender, zap.New(core))

		tracker.Track("todo_created", nil)
		tracker.Flush()

		entries := logs.FilterMessage("failed to track event").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "todo_created", entries[0].ContextMap()["event"])
	})
}

func TestTracerInteractions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := client.NewTracer(zap.New(core))

	tracer.TraceUserInteraction("click", "")
	tracer.TraceNavigation("all", "active")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "[trace] user.click", first.Message)
	assert.Equal(t, "unknown", first.ContextMap()["target"])
	assert.Equal(t, "active", logs.All()[1].ContextMap()["to"])
}
