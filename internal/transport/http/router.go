package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"falak/internal/catalog"
	apierrors "falak/internal/errors"
	"falak/internal/middleware"
	"falak/internal/services"
	"falak/internal/websocket"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Logger   *slog.Logger
	Service  *services.GraphService
	Source   catalog.Source
	Hub      *websocket.Hub
	Registry *prometheus.Registry
	Version  string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	if deps.RateLimitEnabled {
		r.Use(middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errorHandler.HandleError(w, req, apierrors.ErrNotFound)
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/graph", NewGraphHandler(deps.Service, logger, errorHandler).Routes())
		r.Mount("/catalog", NewCatalogHandler(deps.Source, logger, errorHandler).Routes())
		r.Mount("/health", NewHealthHandler(deps.Service, deps.Version).Routes())
	})

	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.ServeWS)
	}

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
