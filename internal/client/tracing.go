// Package client is the Go client of the todo API: a traced HTTP client, a
// fire-and-forget event tracker and the optimistic list controller used by
// the terminal UI.
package client

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "cursor-todo/client"

// Tracer gives client operations span semantics without exporting anything:
// spans come from an inert provider unless one is supplied, and every
// operation is also written to the log.
type Tracer struct {
	tracer trace.Tracer
	logger *zap.Logger
	now    func() time.Time
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider replaces the inert provider, e.g. with an SDK provider in tests.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) { t.tracer = tp.Tracer(instrumentationName) }
}

func NewTracer(logger *zap.Logger, opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer: noop.NewTracerProvider().Tracer(instrumentationName),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TraceOptions describes one traced operation.
type TraceOptions struct {
	Operation  string
	Attributes []attribute.KeyValue
	Kind       trace.SpanKind
}

// TraceOperation runs fn inside a span and logs its outcome. The span is
// ended on every path and fn's error is returned unchanged.
func TraceOperation[T any](ctx context.Context, t *Tracer, opts TraceOptions, fn func(ctx context.Context) (T, error)) (result T, err error) {
	kind := opts.Kind
	if kind == trace.SpanKindUnspecified {
		kind = trace.SpanKindInternal
	}
	ctx, span := t.tracer.Start(ctx, opts.Operation,
		trace.WithSpanKind(kind),
		trace.WithAttributes(opts.Attributes...),
	)
	defer span.End()

	result, err = fn(ctx)

	fields := make([]zap.Field, 0, len(opts.Attributes)+2)
	for _, kv := range opts.Attributes {
		fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Debug("[trace] "+opts.Operation, append(fields, zap.String("status", "error"), zap.Error(err))...)
		return result, err
	}
	span.SetStatus(codes.Ok, "")
	t.logger.Debug("[trace] "+opts.Operation, append(fields, zap.String("status", "success"))...)
	return result, nil
}

// TraceUserInteraction records a user action such as a key press on a todo.
func (t *Tracer) TraceUserInteraction(action, target string) {
	if target == "" {
		target = "unknown"
	}
	t.logger.Debug("[trace] user."+action,
		zap.String("action", action),
		zap.String("target", target),
		zap.Time("timestamp", t.now().UTC()),
	)
}

// TraceNavigation records a change of view, e.g. switching filter tabs.
func (t *Tracer) TraceNavigation(from, to string) {
	t.logger.Debug("[trace] page.navigation",
		zap.String("from", from),
		zap.String("to", to),
		zap.Time("timestamp", t.now().UTC()),
	)
}
