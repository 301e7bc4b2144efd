package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cursor-todo/internal/infrastructure/messaging"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/pkg/api"
)

// MetricsExporter renders the metric registry in the Prometheus text format.
type MetricsExporter interface {
	Export() ([]byte, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the operational endpoints: metrics, health and telemetry intake.
type SystemHandler struct {
	metrics     MetricsExporter
	metricsPath string
	db          Pinger
	publisher   messaging.Publisher
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

func NewSystemHandler(
	metrics MetricsExporter,
	metricsPath string,
	db Pinger,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *SystemHandler {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &SystemHandler{
		metrics:     metrics,
		metricsPath: metricsPath,
		db:          db,
		publisher:   publisher,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

func (h *SystemHandler) Routes(r chi.Router) {
	r.Get(h.metricsPath, h.Metrics)
	r.Get("/health", h.Health)
	r.Post("/track", h.Track)
}

// Metrics handles GET /metrics
func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	body, err := h.metrics.Export()
	if err != nil {
		h.logger.Error("failed to export metrics", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "Failed to generate metrics")
		return
	}
	w.Header().Set("Content-Type", observability.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Health handles GET /health. It always answers 200; a failing database
// shows up as status "degraded".
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok", Timestamp: h.now().UTC()}
	if h.db != nil {
		resp.Database = "ok"
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unavailable"
		}
	}
	api.Success(w, http.StatusOK, resp)
}

// Track handles POST /track. Forwarding failures are logged and never
// reach the client.
func (h *SystemHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req api.TrackEventRequest
	if err := decodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.ErrorWithDetails(w, http.StatusBadRequest, labelValidation,
			"event is required and must be at most 128 characters", map[string]string{"event": err.Error()})
		return
	}

	event := messaging.TrackedEvent{
		Name:       req.Event,
		Properties: req.Properties,
		UserAgent:  r.UserAgent(),
		ReceivedAt: h.now().UTC(),
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		h.logger.Warn("failed to forward tracked event",
			zap.String("event", req.Event),
			zap.Error(err),
		)
	}
	api.Success(w, http.StatusOK, api.TrackEventResponse{Success: true})
}
