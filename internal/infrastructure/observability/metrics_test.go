package observability_test

import (
	"sync"
	"testing"

	"cursor-todo/internal/infrastructure/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCollectorIsProcessWide(t *testing.T) {
	a := observability.DefaultCollector()
	b := observability.DefaultCollector()
	assert.Same(t, a, b)

	before := testutil.ToFloat64(a.TodosCreated)
	a.TodosCreated.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(b.TodosCreated))
}

func TestIncrementCounter(t *testing.T) {
	c := observability.NewCollector("api")

	t.Run("Should route known names to the predeclared series", func(t *testing.T) {
		require.NoError(t, c.IncrementCounter(observability.MetricTodosCompleted, nil))
		require.NoError(t, c.IncrementCounter(observability.MetricDBQueries,
			map[string]string{"operation": "create", "table": "todos"}))

		assert.Equal(t, 1.0, testutil.ToFloat64(c.TodosCompleted))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.DBQueries.WithLabelValues("create", "todos")))
	})

	t.Run("Should register unknown names on first use", func(t *testing.T) {
		labels := map[string]string{"event": "todo_created"}
		require.NoError(t, c.IncrementCounter("client_events_total", labels))
		require.NoError(t, c.IncrementCounter("client_events_total", labels))

		out, err := c.Export()
		require.NoError(t, err)
		assert.Contains(t, string(out), `api_client_events_total{event="todo_created"} 2`)
	})

	t.Run("Should reject mismatched label sets", func(t *testing.T) {
		err := c.IncrementCounter(observability.MetricDBQueries, map[string]string{"operation": "create"})
		assert.Error(t, err)
	})
}

func TestObserveHistogram(t *testing.T) {
	c := observability.NewCollector("api")

	require.NoError(t, c.ObserveHistogram(observability.MetricDBDuration,
		map[string]string{"operation": "findMany", "table": "todos"}, 0.02))

	assert.Equal(t, 1, testutil.CollectAndCount(c.DBDuration))
}

func TestExport(t *testing.T) {
	c := observability.NewCollector("api")
	c.HTTPRequests.WithLabelValues("GET", "/todos", "200").Inc()
	c.TodosDeleted.Inc()

	out, err := c.Export()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# TYPE api_http_requests_total counter")
	assert.Contains(t, text, `api_http_requests_total{method="GET",route="/todos",status_code="200"} 1`)
	assert.Contains(t, text, "api_todos_created_total 0")
	assert.Contains(t, text, "api_todos_deleted_total 1")
	assert.Equal(t, "api_todos_deleted_total", c.FullName(observability.MetricTodosDeleted))
}

func TestCollectorConcurrentUse(t *testing.T) {
	c := observability.NewCollector("api")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.IncrementCounter(observability.MetricTodosCreated, nil)
			_ = c.IncrementCounter("dynamic_total", map[string]string{"k": "v"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50.0, testutil.ToFloat64(c.TodosCreated))
}
