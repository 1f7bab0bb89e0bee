package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/metrics"
)

func TestMetricsHandler_NilMetrics(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	MetricsHandler(nil)(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsHandler_UnmatchedPath(t *testing.T) {
	m := metrics.New()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	MetricsHandler(m)(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/unknown/path", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetricsHandler_UsesRoutePattern(t *testing.T) {
	m := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/flex/trip/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("success"))
	})
	server := httptest.NewServer(MetricsHandler(m)(mux))
	defer server.Close()

	for _, id := range []string{"a", "b"} {
		resp, err := http.Get(server.URL + "/api/flex/trip/" + id)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/flex/trip/{id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newStatusRecorder(rec)
	assert.Equal(t, http.StatusOK, w.statusCode)

	w.WriteHeader(http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, w.statusCode)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Same(t, rec, w.Unwrap())
}
