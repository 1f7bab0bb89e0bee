package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"flex.onebusaway.org/internal/logging"
)

// NewRequestLoggingMiddleware logs each request once it completes. Handlers
// downstream find a logger carrying the request id in the context, so the
// planner's own log lines can be joined to the request.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := GetRequestID(r.Context())

			requestLogger := logger.With(slog.String("request_id", reqID))
			r = r.WithContext(logging.WithLogger(r.Context(), requestLogger))

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				float64(time.Since(start).Nanoseconds())/1e6,
				slog.String("request_id", reqID),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.String("component", "http_server"))
		})
	}
}
