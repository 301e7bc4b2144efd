package di

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cursor-todo/internal/config"
	"cursor-todo/internal/handlers"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/middleware"
	"cursor-todo/pkg/api"
)

// SetupRouter builds the HTTP router with the full middleware chain.
// Metrics and tracing sit outside Recovery so a recovered panic is still
// observed as a 500.
func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	collector *observability.Collector,
	tp *observability.TracerProvider,
	todoHandler *handlers.TodoHandler,
	systemHandler *handlers.SystemHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger.Named("http")))
	r.Use(observability.MetricsMiddleware(collector))
	r.Use(observability.TracingMiddleware(tp, cfg.Tracing.ServiceName))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-Trace-ID"},
		MaxAge:         cfg.CORS.MaxAge,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	todoHandler.Routes(r)
	systemHandler.Routes(r)

	return r
}
