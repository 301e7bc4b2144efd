package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cursor-todo/internal/client"
	"cursor-todo/pkg/api"
)

func newTracedClient(t *testing.T, h http.Handler) (*client.APIClient, *tracetest.SpanRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := client.NewTracer(zap.NewNop(), client.WithTracerProvider(tp))
	return client.NewAPIClient(srv.URL+"/", tracer), recorder
}

func TestAPIClientRequests(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	todo := api.Todo{ID: "1", Title: "milk", CreatedAt: now, UpdatedAt: now}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /todos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.Todo{todo})
	})
	mux.HandleFunc("POST /todos", func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateTodoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		created := todo
		created.Title = req.Title
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	})
	mux.HandleFunc("PATCH /todos/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		toggled := todo
		toggled.ID = r.PathValue("id")
		toggled.Completed = true
		_ = json.NewEncoder(w).Encode(toggled)
	})
	mux.HandleFunc("DELETE /todos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /track", func(w http.ResponseWriter, r *http.Request) {
		var req api.TrackEventRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "todo_created", req.Event)
		_ = json.NewEncoder(w).Encode(api.TrackEventResponse{Success: true})
	})

	c, recorder := newTracedClient(t, mux)
	ctx := context.Background()

	t.Run("Should list todos", func(t *testing.T) {
		got, err := c.ListTodos(ctx)
		require.NoError(t, err)
		assert.Equal(t, []api.Todo{todo}, got)
	})

	t.Run("Should create a todo", func(t *testing.T) {
		got, err := c.CreateTodo(ctx, "eggs")
		require.NoError(t, err)
		assert.Equal(t, "eggs", got.Title)
	})

	t.Run("Should toggle a todo", func(t *testing.T) {
		got, err := c.ToggleTodo(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, "7", got.ID)
		assert.True(t, got.Completed)
	})

	t.Run("Should delete a todo without a body", func(t *testing.T) {
		require.NoError(t, c.DeleteTodo(ctx, "7"))
	})

	t.Run("Should post tracking events", func(t *testing.T) {
		require.NoError(t, c.Track(ctx, "todo_created", map[string]interface{}{"n": 1}))
	})

	t.Run("Should open one client span per request", func(t *testing.T) {
		spans := recorder.Ended()
		require.Len(t, spans, 5)
		assert.Equal(t, "http.get", spans[0].Name())
		assert.Equal(t, "http.post", spans[1].Name())
		assert.Equal(t, "http.patch", spans[2].Name())
		assert.Equal(t, "http.delete", spans[3].Name())
		for _, s := range spans {
			assert.Equal(t, trace.SpanKindClient, s.SpanKind())
			assert.Equal(t, codes.Ok, s.Status().Code)
		}
	})
}

func TestAPIClientEscapesIDs(t *testing.T) {
	var paths []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Todo{ID: "a/b?c"})
	})
	c, _ := newTracedClient(t, h)

	t.Run("Should escape the id in the toggle path", func(t *testing.T) {
		paths = nil
		_, err := c.ToggleTodo(context.Background(), "a/b?c")
		require.NoError(t, err)
		assert.Equal(t, []string{"PATCH /todos/a%2Fb%3Fc/toggle"}, paths)
	})

	t.Run("Should escape the id in the delete path", func(t *testing.T) {
		paths = nil
		require.NoError(t, c.DeleteTodo(context.Background(), "a/b?c"))
		assert.Equal(t, []string{"DELETE /todos/a%2Fb%3Fc"}, paths)
	})
}

func TestAPIClientErrors(t *testing.T) {
	t.Run("Should surface status and message of non-2xx responses", func(t *testing.T) {
		c, recorder := newTracedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.Error(w, http.StatusNotFound, "Todo not found")
		}))

		_, err := c.ToggleTodo(context.Background(), "missing")

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "Todo not found", apiErr.Message)
		assert.Contains(t, err.Error(), "404")

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("Should tolerate error bodies that are not JSON", func(t *testing.T) {
		c, _ := newTracedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))

		err := c.DeleteTodo(context.Background(), "1")

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Empty(t, apiErr.Message)
	})

	t.Run("Should return an empty list for a null body", func(t *testing.T) {
		c, _ := newTracedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("null"))
		}))

		got, err := c.ListTodos(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
