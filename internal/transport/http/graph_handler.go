package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "falak/internal/errors"
	"falak/internal/services"
)

var errValueOutOfRange = errors.New("must be a number between 0 and 1")

// GraphHandler serves the market graph model.
type GraphHandler struct {
	service      *services.GraphService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewGraphHandler creates a graph handler.
func NewGraphHandler(service *services.GraphService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *GraphHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "graph_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the graph routes.
func (h *GraphHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetGraph)
	r.Get("/stats", h.GetStats)
	r.Get("/edges", h.GetEdges)

	return r
}

// GetGraph handles GET /api/graph. An optional threshold query parameter
// builds a one-off model with that correlation threshold instead of
// serving the cached snapshot.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("threshold",
				errValueOutOfRange))
			return
		}

		h.logger.DebugContext(r.Context(), "one-off threshold build",
			slog.Float64("threshold", threshold))
		model, err := h.service.BuildWithThreshold(r.Context(), threshold)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, model)
		return
	}

	model, ok := h.service.Model()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrModelNotReady)
		return
	}
	render.JSON(w, r, model)
}

// GetStats handles GET /api/graph/stats.
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	model, ok := h.service.Model()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrModelNotReady)
		return
	}
	render.JSON(w, r, model.Stats)
}

// GetEdges handles GET /api/graph/edges.
func (h *GraphHandler) GetEdges(w http.ResponseWriter, r *http.Request) {
	model, ok := h.service.Model()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrModelNotReady)
		return
	}
	render.JSON(w, r, model.Edges)
}
