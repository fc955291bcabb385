package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"falak/internal/services"
)

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
	service *services.GraphService
	version string
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service *services.GraphService, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
		started: time.Now().UTC(),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/ready", h.ReadinessCheck)

	return r
}

// HealthCheck handles GET /api/health. The process is alive if it can
// answer at all.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	})
}

// ReadinessCheck handles GET /api/health/ready. Readiness requires a built
// model.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	model, ok := h.service.Model()
	if !ok {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{"status": "waiting for first build"})
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":       "ready",
		"model_id":     model.ID,
		"generated_at": model.GeneratedAt,
	})
}
