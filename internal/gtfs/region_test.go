package gtfs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/network"
)

func TestComputeRegionBounds(t *testing.T) {
	assert.Nil(t, ComputeRegionBounds(nil))

	stops := []*network.StopLocation{
		{ID: "a", Kind: network.StopKindPoint, Lat: 47.0, Lon: -122.0},
		network.NewArea("z", "z", [][][2]float64{{{47.5, -122.5}, {47.5, -121.5}, {48.0, -121.5}, {47.5, -122.5}}}),
	}
	bounds := ComputeRegionBounds(stops)
	require.NotNil(t, bounds)
	assert.InDelta(t, 47.5, bounds.Lat, 1e-9)
	assert.InDelta(t, -122.0, bounds.Lon, 1e-9)
	assert.InDelta(t, 1.0, bounds.LatSpan, 1e-9)
	assert.InDelta(t, 1.0, bounds.LonSpan, 1e-9)
}

func TestManager_RegionBounds(t *testing.T) {
	manager := &Manager{}
	assert.Nil(t, manager.RegionBounds())

	manager, err := InitGTFSManager(context.Background(), Config{
		GtfsURL: writeFeed(t, flexFeedFiles()),
	}, slog.Default(), nil)
	require.NoError(t, err)

	bounds := manager.RegionBounds()
	require.NotNil(t, bounds)
	// the MultiPolygon area at 121.4W stretches the region east of the stops
	assert.InDelta(t, 47.0, bounds.Lat-bounds.LatSpan/2, 1e-9)
	assert.InDelta(t, -121.4, bounds.Lon+bounds.LonSpan/2, 1e-9)
}
