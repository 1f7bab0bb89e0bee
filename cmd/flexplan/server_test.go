package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/appconf"
)

func buildTestApplication(t *testing.T) *app.Application {
	t.Helper()
	if _, err := os.Stat(demoFeed); os.IsNotExist(err) {
		t.Skip("Test data not available, skipping test")
	}
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Gtfs.URL = demoFeed
	cfg.Server.Port = 8080

	application, err := BuildApplication(context.Background(), cfg, io.Discard)
	require.NoError(t, err, "BuildApplication should not fail")
	t.Cleanup(func() {
		application.GtfsManager.Shutdown()
		application.Metrics.Shutdown()
	})
	return application
}

func TestCreateServer(t *testing.T) {
	srv, api := CreateServer(buildTestApplication(t))
	defer api.Shutdown()

	assert.Equal(t, ":8080", srv.Addr, "Server address should match port")
	assert.NotNil(t, srv.Handler, "Server handler should be set")
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
}

func TestCreateServerHandlerResponds(t *testing.T) {
	srv, api := CreateServer(buildTestApplication(t))
	defer api.Shutdown()

	for _, path := range []string{"/healthz", "/api/flex/trips.json", "/debug/?dataType=index", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		srv.Handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRunWithPortZeroAndShutdown(t *testing.T) {
	srv, api := CreateServer(buildTestApplication(t))
	defer api.Shutdown()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, srv, listener, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "Run should shut down cleanly")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
