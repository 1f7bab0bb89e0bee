package restapi

import (
	"net/http"
	"strconv"
	"time"

	"flex.onebusaway.org/internal/metrics"
)

// MetricsHandler returns middleware that records request counts and latency,
// labelled by the matched route pattern. A nil m records nothing.
func MetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			// the mux sets r.Pattern on this same request
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
