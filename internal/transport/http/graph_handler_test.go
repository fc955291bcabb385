package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"falak/internal/catalog"
	apierrors "falak/internal/errors"
	"falak/internal/graph"
	"falak/internal/services"
)

func newTestHandler(t *testing.T, refreshed bool) *GraphHandler {
	t.Helper()
	svc := services.NewGraphService(catalog.FallbackSource(), graph.NewBuilder(nil), nil)
	if refreshed {
		require.NoError(t, svc.Refresh(context.Background()))
	}
	return NewGraphHandler(svc, nil, apierrors.NewErrorHandler(nil))
}

func TestGetGraph(t *testing.T) {
	t.Run("model not ready", func(t *testing.T) {
		h := newTestHandler(t, false)

		rec := httptest.NewRecorder()
		h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "MODEL_NOT_READY")
	})

	t.Run("serves cached model", func(t *testing.T) {
		h := newTestHandler(t, true)

		rec := httptest.NewRecorder()
		h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var model graph.MarketGraphModel
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
		assert.Len(t, model.Instruments, len(catalog.Fallback()))
		assert.Len(t, model.Layout, len(catalog.Fallback()))
	})

	t.Run("threshold query builds one-off model", func(t *testing.T) {
		h := newTestHandler(t, true)

		rec := httptest.NewRecorder()
		h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph?threshold=0.99", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var strict graph.MarketGraphModel
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &strict))

		served, _ := h.service.Model()
		assert.LessOrEqual(t, len(strict.Edges), len(served.Edges))
		assert.NotEqual(t, served.ID, strict.ID)
	})

	t.Run("threshold override keeps the configured market proxy", func(t *testing.T) {
		svc := services.NewGraphService(catalog.FallbackSource(),
			graph.NewBuilder(nil, graph.WithMarketProxy("TASI")), nil)
		require.NoError(t, svc.Refresh(context.Background()))
		h := NewGraphHandler(svc, nil, apierrors.NewErrorHandler(nil))

		rec := httptest.NewRecorder()
		h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph?threshold=0.25", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var model graph.MarketGraphModel
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
		for _, inst := range model.Instruments {
			if inst.Key == "TASI" {
				assert.Equal(t, 1.0, inst.Beta)
			}
		}
	})

	t.Run("rejects malformed threshold", func(t *testing.T) {
		h := newTestHandler(t, true)

		for _, raw := range []string{"abc", "-0.1", "1.5"} {
			rec := httptest.NewRecorder()
			h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph?threshold="+raw, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "threshold=%s", raw)
			assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER")
		}
	})
}

func TestGetStats(t *testing.T) {
	h := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/graph/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats graph.PortfolioStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.GreaterOrEqual(t, stats.Diversification, 0.0)
	assert.LessOrEqual(t, stats.Diversification, 1.0)
}

func TestGetEdges(t *testing.T) {
	h := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	h.GetEdges(rec, httptest.NewRequest(http.MethodGet, "/api/graph/edges", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var edges []graph.CorrelationEdge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edges))
	for i := 1; i < len(edges); i++ {
		assert.GreaterOrEqual(t, abs(edges[i-1].Rho), abs(edges[i].Rho))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
