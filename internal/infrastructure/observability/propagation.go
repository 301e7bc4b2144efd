package observability

import (
	"context"

	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// BaggageRequestID is the baggage member carrying the inbound request id to
// downstream services.
const BaggageRequestID = "request.id"

// NewPropagator returns the W3C trace context and baggage propagator
// installed globally by InitTracing.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// TraceCarrier serializes the span context of ctx for asynchronous messages.
// It returns nil when ctx carries no valid span.
func TraceCarrier(ctx context.Context) map[string]string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	carrier := propagation.MapCarrier{}
	NewPropagator().Inject(ctx, carrier)
	carrier["trace_id"] = sc.TraceID().String()
	carrier["span_id"] = sc.SpanID().String()
	return carrier
}

// ContextFromCarrier restores a remote span context written by TraceCarrier.
func ContextFromCarrier(parent context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return parent
	}
	return NewPropagator().Extract(parent, propagation.MapCarrier(carrier))
}

// WithRequestBaggage adds the request id to the baggage of ctx. Invalid ids
// leave ctx unchanged.
func WithRequestBaggage(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	member, err := baggage.NewMember(BaggageRequestID, requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// RequestIDFromBaggage returns the request id propagated in baggage, if any.
func RequestIDFromBaggage(ctx context.Context) string {
	return baggage.FromContext(ctx).Member(BaggageRequestID).Value()
}
