package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentTimeHandler(t *testing.T) {
	api := createTestApi(t)

	rec, model := serveApiAndRetrieveEndpoint(t, api, "/api/flex/current-time.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, 1, model.Version)

	entry, ok := dataMap(t, model)["entry"].(map[string]any)
	require.True(t, ok, "could not find entry in response data")
	assert.Equal(t, float64(testNow.UnixMilli()), entry["time"])
	assert.Equal(t, "2024-06-10T17:00:00Z", entry["readableTime"])
}

func TestCurrentTimeHandler_Unhealthy(t *testing.T) {
	api := createTestApi(t)
	api.GtfsManager.MarkUnhealthy()

	rec, model := serveApiAndRetrieveEndpoint(t, api, "/api/flex/current-time.json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, model.Code)
}
