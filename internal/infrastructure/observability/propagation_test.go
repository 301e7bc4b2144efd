package observability_test

import (
	"context"
	"testing"

	"cursor-todo/internal/infrastructure/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceCarrier(t *testing.T) {
	t.Run("Should be empty without a span", func(t *testing.T) {
		assert.Nil(t, observability.TraceCarrier(context.Background()))
	})

	t.Run("Should round trip the span context", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer tp.Shutdown(context.Background())
		ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
		defer span.End()

		carrier := observability.TraceCarrier(ctx)
		require.NotEmpty(t, carrier["traceparent"])
		assert.Equal(t, span.SpanContext().SpanID().String(), carrier["span_id"])

		restored := observability.ContextFromCarrier(context.Background(), carrier)
		remote := trace.SpanContextFromContext(restored)
		assert.True(t, remote.IsRemote())
		assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())
	})

	t.Run("Should leave the parent untouched for an empty carrier", func(t *testing.T) {
		parent := context.Background()
		assert.Equal(t, parent, observability.ContextFromCarrier(parent, nil))
	})
}

func TestRequestBaggage(t *testing.T) {
	ctx := observability.WithRequestBaggage(context.Background(), "req-123")
	assert.Equal(t, "req-123", observability.RequestIDFromBaggage(ctx))

	assert.Empty(t, observability.RequestIDFromBaggage(
		observability.WithRequestBaggage(context.Background(), "")))
}
