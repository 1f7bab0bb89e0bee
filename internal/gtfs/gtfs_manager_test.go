package gtfs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/appconf"
	"flex.onebusaway.org/internal/metrics"
)

func TestManager_FromLocalFile(t *testing.T) {
	m := metrics.New()
	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL: writeFeed(t, flexFeedFiles()),
		Env:     appconf.Test,
	}, slog.Default(), m)
	require.NoError(t, err)
	defer manager.Shutdown()

	assert.True(t, manager.IsHealthy())
	assert.False(t, manager.LastUpdated().IsZero())
	assert.Equal(t, metrics.Stats{Trips: 2, Stops: 3, Areas: 2}, manager.FlexStats())

	snapshot, index := manager.Current()
	require.NotNil(t, snapshot)
	require.NotNil(t, index)
	assert.Same(t, snapshot, manager.Snapshot())
	assert.Same(t, index, manager.Index())

	trip, err := index.Trip("t-area")
	require.NoError(t, err)
	assert.Equal(t, "unscheduled", trip.Kind().String())
	_, err = index.Trip("t-fixed")
	assert.Error(t, err, "fixed-route trips are not indexed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedLoadsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TripsClassified.WithLabelValues("unscheduled")))
}

func TestManager_MissingFile(t *testing.T) {
	m := metrics.New()
	_, err := InitGTFSManager(context.Background(), Config{
		GtfsURL: "/does/not/exist.zip",
	}, slog.Default(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load GTFS feed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedLoadsTotal.WithLabelValues("error")))
}

func TestManager_FromHTTPWithAuthHeader(t *testing.T) {
	feed := zipFeed(t, flexFeedFiles())
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(feed)
	}))
	defer server.Close()

	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL:               server.URL + "/flex.zip",
		StaticAuthHeaderKey:   "X-Api-Key",
		StaticAuthHeaderValue: "secret",
	}, slog.Default(), nil)
	require.NoError(t, err)
	defer manager.Shutdown()

	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 2, manager.FlexStats().Trips)

	_, err = InitGTFSManager(context.Background(), Config{
		GtfsURL: server.URL + "/flex.zip",
	}, slog.Default(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestManager_ForceUpdateSwapsSnapshot(t *testing.T) {
	full := zipFeed(t, flexFeedFiles())
	reduced := flexFeedFiles()
	delete(reduced, "location_groups.txt")
	delete(reduced, "location_group_stops.txt")
	smaller := zipFeed(t, reduced)

	var serve atomic.Value
	serve.Store(full)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := serve.Load().([]byte)
		if body == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	manager, err := InitGTFSManager(context.Background(), Config{GtfsURL: server.URL}, slog.Default(), nil)
	require.NoError(t, err)
	defer manager.Shutdown()
	require.Equal(t, 2, manager.FlexStats().Trips)
	before := manager.Snapshot()

	serve.Store(smaller)
	require.NoError(t, manager.ForceUpdate(context.Background()))
	assert.Equal(t, 1, manager.FlexStats().Trips, "the group trip is gone")
	assert.NotSame(t, before, manager.Snapshot())

	swapped := manager.Snapshot()
	serve.Store([]byte(nil))
	err = manager.ForceUpdate(context.Background())
	require.Error(t, err)
	assert.Same(t, swapped, manager.Snapshot(), "a failed reload keeps the previous snapshot")
	assert.True(t, manager.IsHealthy())
}

func TestManager_ForceUpdateCanceled(t *testing.T) {
	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL: writeFeed(t, flexFeedFiles()),
	}, slog.Default(), nil)
	require.NoError(t, err)
	before := manager.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, manager.ForceUpdate(ctx), context.Canceled)
	assert.Same(t, before, manager.Snapshot())
}

func TestManager_PeriodicRefresh(t *testing.T) {
	feed := zipFeed(t, flexFeedFiles())
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(feed)
	}))
	defer server.Close()

	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL:         server.URL,
		RefreshInterval: 20 * time.Millisecond,
	}, slog.Default(), nil)
	require.NoError(t, err)

	first := manager.LastUpdated()
	assert.Eventually(t, func() bool { return requests.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, manager.LastUpdated().After(first))

	manager.Shutdown()
	manager.Shutdown()
	settled := requests.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, requests.Load(), "no reloads after shutdown")
}

func TestManager_LocalFileIsNotRefreshed(t *testing.T) {
	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL:         writeFeed(t, flexFeedFiles()),
		RefreshInterval: time.Millisecond,
	}, slog.Default(), nil)
	require.NoError(t, err)
	first := manager.LastUpdated()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, first, manager.LastUpdated())
	assert.True(t, manager.NextRefresh().IsZero())
	manager.Shutdown()
}

func TestManager_NextRefresh(t *testing.T) {
	feed := zipFeed(t, flexFeedFiles())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(feed)
	}))
	defer server.Close()

	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL:         server.URL,
		RefreshInterval: time.Hour,
	}, slog.Default(), nil)
	require.NoError(t, err)
	defer manager.Shutdown()

	assert.Equal(t, manager.LastUpdated().Add(time.Hour), manager.NextRefresh())
}
