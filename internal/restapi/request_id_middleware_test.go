package restapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"flex.onebusaway.org/internal/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("should generate request ID if missing", func(t *testing.T) {
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestID(r.Context()), "Request ID should not be empty")
		})

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		rec := httptest.NewRecorder()

		RequestIDMiddleware(nextHandler).ServeHTTP(rec, req)

		assert.Regexp(t, `^[0-9a-f-]{36}$`, rec.Header().Get("X-Request-ID"))
	})

	t.Run("should preserve existing valid request ID", func(t *testing.T) {
		for _, existingID := range []string{"my-custom-trace-id-123", strings.Repeat("a", 128)} {
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, existingID, GetRequestID(r.Context()))
			})

			req := httptest.NewRequest("GET", "http://example.com/foo", nil)
			req.Header.Set("X-Request-ID", existingID)
			rec := httptest.NewRecorder()

			RequestIDMiddleware(nextHandler).ServeHTTP(rec, req)

			assert.Equal(t, existingID, rec.Header().Get("X-Request-ID"))
		}
	})

	t.Run("should replace invalid request ID", func(t *testing.T) {
		testCases := []struct {
			name      string
			invalidID string
		}{
			{"ID too long (>128 chars)", strings.Repeat("a", 129)},
			{"ID contains invalid characters", "bad-id-<script>"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					reqID := GetRequestID(r.Context())
					assert.NotEqual(t, tc.invalidID, reqID)
					assert.NotEmpty(t, reqID)
				})

				req := httptest.NewRequest("GET", "http://example.com/foo", nil)
				req.Header.Set("X-Request-ID", tc.invalidID)
				rec := httptest.NewRecorder()

				RequestIDMiddleware(nextHandler).ServeHTTP(rec, req)
			})
		}
	})
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}

func TestRequestIDLoggingIntegration(t *testing.T) {
	var logBuf bytes.Buffer
	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	handlerToTest := RequestIDMiddleware(NewRequestLoggingMiddleware(testLogger)(finalHandler))

	expectedReqID := "integration-test-id-999"
	req := httptest.NewRequest("GET", "http://example.com/test", nil)
	req.Header.Set("X-Request-ID", expectedReqID)
	rec := httptest.NewRecorder()

	handlerToTest.ServeHTTP(rec, req)

	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], `"msg":"inside handler"`)
		assert.Contains(t, lines[0], `"request_id":"`+expectedReqID+`"`, "handler logger carries the request ID")
		assert.Contains(t, lines[1], `"msg":"http_request"`)
		assert.Contains(t, lines[1], `"status":418`)
		assert.Contains(t, lines[1], `"request_id":"`+expectedReqID+`"`)
	}
}
