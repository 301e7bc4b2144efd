// Package observability holds the metric registry, tracing setup and the
// measurement wrappers shared by the HTTP and persistence layers.
//
// # Metrics
//
// Collector owns a private Prometheus registry. The series every deployment
// exposes are created up front:
//
//	<ns>_http_requests_total{method,route,status_code}
//	<ns>_http_request_duration_seconds{method,route,status_code}
//	<ns>_db_queries_total{operation,table}
//	<ns>_db_query_duration_seconds{operation,table}
//	<ns>_todos_created_total
//	<ns>_todos_completed_total
//	<ns>_todos_deleted_total
//
// IncrementCounter and ObserveHistogram route known names to those series and
// register anything else on first use. DefaultCollector is the process-wide
// instance scraped from the metrics endpoint.
//
// # Tracing
//
// InitTracing installs an OTLP exporting provider when tracing is enabled and
// an inert one otherwise. Callers always receive a usable provider.
//
// # Measurement
//
// TrackDBOperation and TrackDBExec time one storage call, record it in both
// metric families and wrap it in a client span. MetricsMiddleware and
// TracingMiddleware do the same per HTTP request, labelled by the matched
// route template rather than the literal path.
package observability
