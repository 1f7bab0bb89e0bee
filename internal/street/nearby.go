package street

import (
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/utils"
)

// NearbyStop is a stop location reached by walking from the search origin
// (access) or toward the search destination (egress).
type NearbyStop struct {
	Stop           *network.StopLocation
	DistanceMeters float64
	ElapsedSeconds int
	State          StateID
}

// WalkOptions bounds the straight-line walking search.
type WalkOptions struct {
	SpeedMetersPerSecond float64
	MaxDistanceMeters    float64
}

// DefaultWalkOptions walks at 1.33 m/s for at most one kilometre.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{SpeedMetersPerSecond: 1.33, MaxDistanceMeters: 1000}
}

// FindNearbyStops walks in a straight line from place to every point stop and
// flex area within reach, recording each walk in the arena. A place that lies
// inside an area reaches that area with no walk at all. Location groups are
// never returned; they are matched through their member stops. Results are
// ordered by elapsed time, then stop id.
func FindNearbyStops(arena *Arena, place Place, stops []*network.StopLocation, opts WalkOptions) []NearbyStop {
	origin := arena.Origin(place)

	var nearby []NearbyStop
	for _, stop := range stops {
		var distance float64
		switch stop.Kind {
		case network.StopKindGroup:
			continue
		case network.StopKindArea:
			if !stop.CoversPoint(place.Lat, place.Lon) {
				distance = utils.Distance(place.Lat, place.Lon, stop.Lat, stop.Lon)
			}
		default:
			distance = utils.Distance(place.Lat, place.Lon, stop.Lat, stop.Lon)
		}
		if distance > opts.MaxDistanceMeters {
			continue
		}

		duration := 0
		if opts.SpeedMetersPerSecond > 0 {
			duration = int(math.Round(distance / opts.SpeedMetersPerSecond))
		}
		reached := Place{Lat: stop.Lat, Lon: stop.Lon, Stop: stop}
		if stop.Kind == network.StopKindArea && distance == 0 {
			reached = Place{Lat: place.Lat, Lon: place.Lon, Stop: stop}
		}
		state := arena.Append(Step{
			Kind:            StepWalk,
			Back:            origin,
			Place:           reached,
			DurationSeconds: duration,
			DistanceMeters:  distance,
		})
		nearby = append(nearby, NearbyStop{
			Stop:           stop,
			DistanceMeters: distance,
			ElapsedSeconds: duration,
			State:          state,
		})
	}

	slices.SortStableFunc(nearby, func(a, b NearbyStop) int {
		if a.ElapsedSeconds != b.ElapsedSeconds {
			return a.ElapsedSeconds - b.ElapsedSeconds
		}
		return strings.Compare(a.Stop.ID, b.Stop.ID)
	})
	return nearby
}
