package restapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/appconf"
	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/gtfs"
	"flex.onebusaway.org/internal/metrics"
	"flex.onebusaway.org/internal/models"
)

var testNow = time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) appconf.Config {
	t.Helper()
	feed := filepath.Join("..", "..", "testdata", "flex-demo.zip")
	if _, err := os.Stat(feed); os.IsNotExist(err) {
		t.Skip("Test data not available, skipping test")
	}
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Gtfs.URL = feed
	cfg.Server.RateLimit = -1
	return cfg
}

func createTestApiWithConfig(t *testing.T, cfg appconf.Config) *RestAPI {
	t.Helper()
	gtfsCfg := gtfs.NewConfig(cfg)
	m := metrics.New()

	manager, err := gtfs.InitGTFSManager(context.Background(), gtfsCfg, slog.Default(), m)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	api := NewRestAPI(&app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      slog.Default(),
		GtfsManager: manager,
		Clock:       clock.NewMockClock(testNow),
		Metrics:     m,
	})
	t.Cleanup(api.Shutdown)
	return api
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithConfig(t, testConfig(t))
}

// serveApiAndRetrieveEndpoint runs path through the full middleware chain and
// decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, path string) (*httptest.ResponseRecorder, models.ResponseModel) {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	api.Handler(mux).ServeHTTP(rec, req)

	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model), rec.Body.String())
	return rec, model
}

func dataMap(t *testing.T, model models.ResponseModel) map[string]any {
	t.Helper()
	data, ok := model.Data.(map[string]any)
	require.True(t, ok, "could not cast data to expected type")
	return data
}
