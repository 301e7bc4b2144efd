package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// UnknownRoute labels requests that matched no route template.
const UnknownRoute = "unknown"

// RoutePattern returns the matched chi route template, or UnknownRoute.
// It is only complete once the router has dispatched the request.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return UnknownRoute
}

// MetricsMiddleware records one request count and one duration per request,
// labelled by method, route template and final status code. It records even
// when a downstream handler panics, in which case the status is 500.
func MetricsMiddleware(collector *Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()

				status := ww.Status()
				if rec != nil && status == 0 {
					status = http.StatusInternalServerError
				}
				if status == 0 {
					status = http.StatusOK
				}
				labels := []string{r.Method, RoutePattern(r), strconv.Itoa(status)}

				collector.HTTPRequests.WithLabelValues(labels...).Inc()
				collector.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// TracingMiddleware opens a server span per request. The span is renamed to
// "<method> <route>" once routing has resolved the template.
func TracingMiddleware(tp trace.TracerProvider, serviceName string) func(http.Handler) http.Handler {
	tracer := tp.Tracer(serviceName)
	propagator := NewPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx = WithRequestBaggage(ctx, middleware.GetReqID(r.Context()))

			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.host", r.Host),
					attribute.String("http.user_agent", r.UserAgent()),
					attribute.String("http.request_id", middleware.GetReqID(r.Context())),
				),
			)
			defer span.End()

			if spanCtx := span.SpanContext(); spanCtx.HasTraceID() {
				w.Header().Set("X-Trace-ID", spanCtx.TraceID().String())
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				rec := recover()

				route := RoutePattern(r)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
					if rec != nil {
						status = http.StatusInternalServerError
					}
				}

				span.SetName(r.Method + " " + route)
				span.SetAttributes(
					attribute.String("http.route", route),
					attribute.Int("http.status_code", status),
					attribute.Int("http.response_size", ww.BytesWritten()),
					attribute.Float64("http.duration_ms", float64(time.Since(start).Microseconds())/1000),
				)

				switch {
				case rec != nil:
					span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", rec))
				case status >= http.StatusInternalServerError:
					span.SetStatus(codes.Error, http.StatusText(status))
				default:
					span.SetStatus(codes.Ok, "")
				}

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
