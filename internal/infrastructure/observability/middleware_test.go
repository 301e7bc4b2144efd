package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cursor-todo/internal/infrastructure/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newInstrumentedRouter(collector *observability.Collector, tp trace.TracerProvider) chi.Router {
	r := chi.NewRouter()
	r.Use(observability.MetricsMiddleware(collector))
	r.Use(observability.TracingMiddleware(tp, "test"))
	r.Patch("/todos/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Delete("/todos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.Get("/implicit", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestMetricsMiddleware(t *testing.T) {
	t.Run("Should label by route template rather than literal path", func(t *testing.T) {
		collector := observability.NewCollector("api")
		router := newInstrumentedRouter(collector, observability.NewNoopTracerProvider())

		for _, id := range []string{"a", "b", "c"} {
			req := httptest.NewRequest(http.MethodPatch, "/todos/"+id+"/toggle", nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		assert.Equal(t, 3.0, testutil.ToFloat64(
			collector.HTTPRequests.WithLabelValues("PATCH", "/todos/{id}/toggle", "200")))
		assert.Equal(t, 1, testutil.CollectAndCount(collector.HTTPRequests))
		assert.Equal(t, 1, testutil.CollectAndCount(collector.HTTPDuration))
	})

	t.Run("Should record error statuses", func(t *testing.T) {
		collector := observability.NewCollector("api")
		router := newInstrumentedRouter(collector, observability.NewNoopTracerProvider())

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/todos/x", nil))

		assert.Equal(t, 1.0, testutil.ToFloat64(
			collector.HTTPRequests.WithLabelValues("DELETE", "/todos/{id}", "404")))
	})

	t.Run("Should default to 200 when the handler only writes a body", func(t *testing.T) {
		collector := observability.NewCollector("api")
		router := newInstrumentedRouter(collector, observability.NewNoopTracerProvider())

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/implicit", nil))

		assert.Equal(t, 1.0, testutil.ToFloat64(
			collector.HTTPRequests.WithLabelValues("GET", "/implicit", "200")))
	})

	t.Run("Should label unmatched requests as unknown", func(t *testing.T) {
		collector := observability.NewCollector("api")
		router := newInstrumentedRouter(collector, observability.NewNoopTracerProvider())

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, 1.0, testutil.ToFloat64(
			collector.HTTPRequests.WithLabelValues("GET", observability.UnknownRoute, "404")))
	})

	t.Run("Should record a 500 exactly once when the handler panics", func(t *testing.T) {
		collector := observability.NewCollector("api")
		router := newInstrumentedRouter(collector, observability.NewNoopTracerProvider())

		assert.Panics(t, func() {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
		})

		assert.Equal(t, 1.0, testutil.ToFloat64(
			collector.HTTPRequests.WithLabelValues("GET", "/panic", "500")))
		assert.Equal(t, 1, testutil.CollectAndCount(collector.HTTPRequests))
	})
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	router := newInstrumentedRouter(observability.NewCollector("api"), tp)

	t.Run("Should name the span after the route and expose the trace id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/todos/42/toggle", nil))

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		span := spans[len(spans)-1]
		assert.Equal(t, "PATCH /todos/{id}/toggle", span.Name())
		assert.Equal(t, trace.SpanKindServer, span.SpanKind())
		assert.Equal(t, codes.Ok, span.Status().Code)
		assert.Equal(t, span.SpanContext().TraceID().String(), rec.Header().Get("X-Trace-ID"))
	})

	t.Run("Should not mark client errors as span errors", func(t *testing.T) {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/todos/42", nil))

		spans := recorder.Ended()
		span := spans[len(spans)-1]
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})

	t.Run("Should end the span when the handler panics", func(t *testing.T) {
		before := len(recorder.Ended())
		assert.Panics(t, func() {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
		})

		spans := recorder.Ended()
		require.Len(t, spans, before+1)
		assert.Equal(t, codes.Error, spans[len(spans)-1].Status().Code)
	})
}
