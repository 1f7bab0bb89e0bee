package restapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/models"
)

func decodeModel(t *testing.T, w *httptest.ResponseRecorder) models.ResponseModel {
	t.Helper()
	var decoded models.ResponseModel
	require.NoError(t, json.NewDecoder(w.Body).Decode(&decoded))
	return decoded
}

func TestSendResponse(t *testing.T) {
	api := createTestApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	api.sendResponse(w, r, models.NewOKResponse(map[string]string{"test": "data"}, api.Clock))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	decoded := decodeModel(t, w)
	assert.Equal(t, "OK", decoded.Text)
	assert.Equal(t, map[string]any{"test": "data"}, decoded.Data)
}

func TestSendError(t *testing.T) {
	api := createTestApi(t)

	tests := []struct {
		name string
		send func(w http.ResponseWriter, r *http.Request)
		code int
		text string
	}{
		{
			name: "not found",
			send: api.sendNotFound,
			code: http.StatusNotFound,
			text: "resource not found",
		},
		{
			name: "custom error",
			send: func(w http.ResponseWriter, r *http.Request) {
				api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
			},
			code: http.StatusServiceUnavailable,
			text: "GTFS data unavailable",
		},
		{
			name: "server error hides the cause",
			send: func(w http.ResponseWriter, r *http.Request) {
				api.serverErrorResponse(w, r, errors.New("disk on fire"))
			},
			code: http.StatusInternalServerError,
			text: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.send(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.code, w.Code)
			decoded := decodeModel(t, w)
			assert.Equal(t, tt.code, decoded.Code)
			assert.Equal(t, tt.text, decoded.Text)
			assert.Equal(t, testNow.UnixMilli(), decoded.CurrentTime)
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	api := createTestApi(t)

	w := httptest.NewRecorder()
	api.validationErrorResponse(w, httptest.NewRequest(http.MethodGet, "/test", nil), map[string][]string{
		"toLat":   {"failed latitude"},
		"fromLat": {"failed required"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	decoded := decodeModel(t, w)
	assert.Equal(t, "fromLat: failed required; toLat: failed latitude", decoded.Text)
}
