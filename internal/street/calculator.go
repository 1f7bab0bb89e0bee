package street

import (
	"math"

	"github.com/twpayne/go-polyline"

	"flex.onebusaway.org/internal/utils"
)

// FlexPath is the in-vehicle path between two places of a flex trip.
type FlexPath struct {
	DistanceMeters  float64
	DurationSeconds int
	Geometry        [][]float64 // [lat, lon] pairs in travel order
}

// EncodedGeometry returns the geometry as a Google encoded polyline.
func (p *FlexPath) EncodedGeometry() string {
	if p == nil || len(p.Geometry) == 0 {
		return ""
	}
	return string(polyline.EncodeCoords(p.Geometry))
}

// PathCalculator estimates the in-vehicle path between the boarding place and
// the alighting place of a flex trip. It returns nil when no path exists.
// Implementations may be slow; callers treat them as opaque synchronous calls.
type PathCalculator interface {
	CalculateFlexPath(from, to Place, fromIndex, toIndex int) *FlexPath
}

// DirectCalculator draws a straight line between the places, stretched by a
// detour factor, driven at a constant speed, plus a fixed extra time.
type DirectCalculator struct {
	DetourFactor         float64
	SpeedMetersPerSecond float64
	ExtraTimeSeconds     int
}

func NewDirectCalculator() DirectCalculator {
	return DirectCalculator{DetourFactor: 1.3, SpeedMetersPerSecond: 8.0, ExtraTimeSeconds: 300}
}

func (c DirectCalculator) CalculateFlexPath(from, to Place, _, _ int) *FlexPath {
	distance := utils.Distance(from.Lat, from.Lon, to.Lat, to.Lon) * c.DetourFactor
	if c.SpeedMetersPerSecond <= 0 {
		return nil
	}
	return &FlexPath{
		DistanceMeters:  distance,
		DurationSeconds: int(math.Round(distance/c.SpeedMetersPerSecond)) + c.ExtraTimeSeconds,
		Geometry:        [][]float64{{from.Lat, from.Lon}, {to.Lat, to.Lon}},
	}
}

// StreetCalculator searches the street network in one direction. Access
// searches run away from the flex area (Reverse false, from the boarding
// place), egress searches run toward it (Reverse true, from the alighting
// place back to the boarding place). Paths longer than MaxDistanceMeters are
// not found.
type StreetCalculator struct {
	Reverse              bool
	DetourFactor         float64
	SpeedMetersPerSecond float64
	MaxDistanceMeters    float64
}

func NewStreetCalculator(reverse bool) StreetCalculator {
	return StreetCalculator{
		Reverse:              reverse,
		DetourFactor:         1.4,
		SpeedMetersPerSecond: 11.0,
		MaxDistanceMeters:    50000,
	}
}

func (c StreetCalculator) CalculateFlexPath(from, to Place, _, _ int) *FlexPath {
	origin, destination := from, to
	if c.Reverse {
		origin, destination = to, from
	}
	if c.SpeedMetersPerSecond <= 0 {
		return nil
	}

	distance := utils.Distance(origin.Lat, origin.Lon, destination.Lat, destination.Lon) * c.DetourFactor
	if c.MaxDistanceMeters > 0 && distance > c.MaxDistanceMeters {
		return nil
	}

	// the search walks origin to destination; the path is always reported in travel order
	geometry := [][]float64{{origin.Lat, origin.Lon}, {destination.Lat, destination.Lon}}
	if c.Reverse {
		geometry[0], geometry[1] = geometry[1], geometry[0]
	}
	return &FlexPath{
		DistanceMeters:  distance,
		DurationSeconds: int(math.Round(distance / c.SpeedMetersPerSecond)),
		Geometry:        geometry,
	}
}
