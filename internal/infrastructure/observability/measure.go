package observability

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DBInstrumentation carries what every measured data access call needs.
type DBInstrumentation struct {
	tracer    trace.Tracer
	collector *Collector
	system    string
	component string
}

// NewDBInstrumentation builds the instrumentation for one store.
// system is the db.system span attribute, for example "postgresql".
func NewDBInstrumentation(tracer trace.Tracer, collector *Collector, system, component string) *DBInstrumentation {
	return &DBInstrumentation{
		tracer:    tracer,
		collector: collector,
		system:    system,
		component: component,
	}
}

// TrackDBOperation runs fn exactly once inside a client span named db.<operation>.
//
// Whatever fn does (returns, fails or panics) the (operation, table) query
// counter is incremented once, one duration is observed and the span is ended.
// Errors are returned unchanged and panics are re-raised after bookkeeping.
func TrackDBOperation[T any](
	ctx context.Context,
	inst *DBInstrumentation,
	operation, table string,
	fn func(context.Context) (T, error),
) (result T, err error) {
	ctx, span := inst.tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", inst.system),
			attribute.String("db.operation", operation),
			attribute.String("db.collection.name", table),
			attribute.String("component", inst.component),
		),
	)
	start := time.Now()

	defer func() {
		r := recover()
		elapsed := time.Since(start)

		inst.collector.DBQueries.WithLabelValues(operation, table).Inc()
		inst.collector.DBDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
		span.SetAttributes(attribute.Float64("db.duration_ms", float64(elapsed.Microseconds())/1000))

		switch {
		case r != nil:
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			span.SetAttributes(attribute.Bool("error", true))
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(
				attribute.Bool("error", true),
				attribute.String("error.message", err.Error()),
			)
		default:
			span.SetAttributes(attribute.Int("db.rows_affected", RowsAffected(result)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if r != nil {
			panic(r)
		}
	}()

	return fn(ctx)
}

// TrackDBExec is TrackDBOperation for calls that only return an error.
// A successful call reports one affected row.
func TrackDBExec(
	ctx context.Context,
	inst *DBInstrumentation,
	operation, table string,
	fn func(context.Context) error,
) error {
	_, err := TrackDBOperation(ctx, inst, operation, table, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RowsAffected derives a row count from a result: the length of a slice,
// array or map, 0 for nil, and 1 for any other value.
func RowsAffected(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return 0
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return 0
		}
		return rv.Len()
	case reflect.Array:
		return rv.Len()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return 1
	default:
		return 1
	}
}
