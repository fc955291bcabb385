package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"falak/internal/catalog"
	apierrors "falak/internal/errors"
)

// CatalogHandler serves the raw instrument universe.
type CatalogHandler struct {
	source       catalog.Source
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(source catalog.Source, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		source:       source,
		logger:       logger.With(slog.String("component", "catalog_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the catalog routes.
func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetCatalog)
	r.Get("/categories", h.GetCategories)

	return r
}

// GetCatalog handles GET /api/catalog.
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.source.Instruments(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"instruments": instruments,
		"count":       len(instruments),
	})
}

// GetCategories handles GET /api/catalog/categories, returning the
// categories in their layout order.
func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, catalog.LayoutOrder)
}
