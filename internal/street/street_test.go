package street

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/network"
)

func TestArenaBackChain(t *testing.T) {
	arena := NewArena()
	origin := arena.Origin(Place{Lat: 1, Lon: 1})
	walk := arena.Append(Step{Kind: StepWalk, Back: origin, DurationSeconds: 120})
	flex := arena.Append(Step{Kind: StepFlex, Back: walk, DurationSeconds: 600, TripID: "t1", FromIndex: 0, ToIndex: 1})
	egress := arena.Append(Step{Kind: StepWalk, Back: flex, DurationSeconds: 60})

	assert.Equal(t, 4, arena.Len())
	assert.Equal(t, 0, arena.Elapsed(origin))
	assert.Equal(t, 120, arena.Elapsed(walk))
	assert.Equal(t, 720, arena.Elapsed(flex))
	assert.Equal(t, 780, arena.Elapsed(egress))
	assert.Equal(t, 0, arena.Elapsed(NoState))

	step, ok := arena.FindLast(egress, StepFlex)
	require.True(t, ok)
	assert.Equal(t, "t1", step.TripID)

	_, ok = arena.FindLast(walk, StepFlex)
	assert.False(t, ok)

	chain := arena.Chain(egress)
	require.Len(t, chain, 4)
	assert.Equal(t, StepOrigin, chain[0].Kind)
	assert.Equal(t, StepFlex, chain[2].Kind)
	assert.Equal(t, StepWalk, chain[3].Kind)
}

func TestFindNearbyStops(t *testing.T) {
	near := &network.StopLocation{ID: "near", Lat: 0.001, Lon: 0}
	far := &network.StopLocation{ID: "far", Lat: 0.1, Lon: 0}
	zone := network.NewArea("zone", "Zone", [][][2]float64{{{-0.01, -0.01}, {-0.01, 0.01}, {0.01, 0.01}, {0.01, -0.01}}})
	group := network.NewGroup("group", "Group", []*network.StopLocation{near})

	arena := NewArena()
	nearby := FindNearbyStops(arena, Place{Lat: 0, Lon: 0}, []*network.StopLocation{far, near, zone, group}, DefaultWalkOptions())

	require.Len(t, nearby, 2)
	assert.Equal(t, "zone", nearby[0].Stop.ID)
	assert.Equal(t, 0, nearby[0].ElapsedSeconds)
	assert.Equal(t, "near", nearby[1].Stop.ID)
	assert.InDelta(t, 111, nearby[1].DistanceMeters, 1)
	assert.Equal(t, nearby[1].ElapsedSeconds, arena.Elapsed(nearby[1].State))

	// the walk inside the zone ends where it started
	step := arena.Step(nearby[0].State)
	assert.Equal(t, 0.0, step.Place.Lat)
	assert.Same(t, zone, step.Place.Stop)
}

func TestDirectCalculator(t *testing.T) {
	calc := NewDirectCalculator()
	path := calc.CalculateFlexPath(Place{Lat: 0, Lon: 0}, Place{Lat: 0.008993, Lon: 0}, 0, 1)
	require.NotNil(t, path)
	assert.InDelta(t, 1300, path.DistanceMeters, 2)
	assert.InDelta(t, 162+300, path.DurationSeconds, 1)
	assert.NotEmpty(t, path.EncodedGeometry())

	calc.SpeedMetersPerSecond = 0
	assert.Nil(t, calc.CalculateFlexPath(Place{}, Place{Lat: 1}, 0, 1))
}

func TestStreetCalculator(t *testing.T) {
	from := Place{Lat: 0, Lon: 0}
	to := Place{Lat: 0.01, Lon: 0}

	forward := NewStreetCalculator(false).CalculateFlexPath(from, to, 0, 1)
	reverse := NewStreetCalculator(true).CalculateFlexPath(from, to, 0, 1)
	require.NotNil(t, forward)
	require.NotNil(t, reverse)

	assert.Equal(t, forward.DurationSeconds, reverse.DurationSeconds)
	assert.Equal(t, forward.Geometry, reverse.Geometry)
	assert.Equal(t, []float64{0, 0}, forward.Geometry[0])

	limited := NewStreetCalculator(false)
	limited.MaxDistanceMeters = 100
	assert.Nil(t, limited.CalculateFlexPath(from, to, 0, 1))
}

func TestEncodedGeometryEmpty(t *testing.T) {
	var path *FlexPath
	assert.Equal(t, "", path.EncodedGeometry())
}
