package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"falak/internal/infrastructure"
)

func TestRequestID(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var seenTraceID string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenTraceID = infrastructure.GetTraceID(r.Context())
		})

		rec := httptest.NewRecorder()
		RequestID(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seenTraceID)
		assert.Equal(t, seenTraceID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		var seenTraceID string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenTraceID = infrastructure.GetTraceID(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		RequestID(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "trace-123", seenTraceID)
	})
}

func TestRecovery(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	handler := Recovery(slog.Default())(next)

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Zero sustained rate with a burst of two: third request must be
	// rejected.
	handler := RateLimit(0, 2)(next)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	// The rejection carries the structured error envelope.
	assert.Contains(t, last.Body.String(), "RATE_LIMIT_EXCEEDED")
}
