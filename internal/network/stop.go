// Package network holds the read-only transit network snapshot that the flex
// engine routes over: stops, flex areas, location groups, trips and their raw
// stop times, and the per-date service calendar.
package network

import "flex.onebusaway.org/internal/utils"

// StopKind distinguishes the three kinds of stop-time targets.
type StopKind int

const (
	// StopKindPoint is a regular GTFS stop with a fixed coordinate.
	StopKindPoint StopKind = iota
	// StopKindArea is a GeoJSON polygon location from locations.geojson.
	StopKindArea
	// StopKindGroup is a named set of point stops from location_group_stops.txt.
	StopKindGroup
)

func (k StopKind) String() string {
	switch k {
	case StopKindPoint:
		return "POINT"
	case StopKindArea:
		return "AREA"
	case StopKindGroup:
		return "GROUP"
	}
	return "UNKNOWN"
}

// StopLocation is anything a stop time may reference.
type StopLocation struct {
	ID   string
	Name string
	Kind StopKind

	// Lat and Lon are the stop coordinate, or the centroid for areas and groups.
	Lat float64
	Lon float64

	// Polygons holds the outer rings of an area, each as [lat, lon] pairs.
	Polygons [][][2]float64

	// Members lists the point stops of a location group.
	Members []*StopLocation
}

// IsArea reports whether the location is a flex area or a location group.
func (s *StopLocation) IsArea() bool {
	return s.Kind != StopKindPoint
}

// Contains reports whether other is s itself or, for a group, one of its members.
func (s *StopLocation) Contains(other *StopLocation) bool {
	if s == nil || other == nil {
		return false
	}
	if s.ID == other.ID {
		return true
	}
	if s.Kind != StopKindGroup {
		return false
	}
	for _, member := range s.Members {
		if member.ID == other.ID {
			return true
		}
	}
	return false
}

// Expand returns the members of a location group, or the location itself.
func (s *StopLocation) Expand() []*StopLocation {
	if s.Kind == StopKindGroup {
		return s.Members
	}
	return []*StopLocation{s}
}

// CoversPoint reports whether the coordinate lies inside one of the area's polygons.
// Points and groups never cover anything.
func (s *StopLocation) CoversPoint(lat, lon float64) bool {
	if s.Kind != StopKindArea {
		return false
	}
	for _, ring := range s.Polygons {
		if utils.PolygonContains(ring, lat, lon) {
			return true
		}
	}
	return false
}

// Bounds returns the bounding box of the location.
func (s *StopLocation) Bounds() utils.CoordinateBounds {
	switch s.Kind {
	case StopKindArea:
		var rings [][2]float64
		for _, ring := range s.Polygons {
			rings = append(rings, ring...)
		}
		if len(rings) > 0 {
			return utils.BoundsOf(rings)
		}
	case StopKindGroup:
		points := make([][2]float64, 0, len(s.Members))
		for _, member := range s.Members {
			points = append(points, [2]float64{member.Lat, member.Lon})
		}
		if len(points) > 0 {
			return utils.BoundsOf(points)
		}
	}
	return utils.CoordinateBounds{MinLat: s.Lat, MaxLat: s.Lat, MinLon: s.Lon, MaxLon: s.Lon}
}

// NewArea builds an area location, computing its centroid from the polygon rings.
func NewArea(id, name string, polygons [][][2]float64) *StopLocation {
	area := &StopLocation{ID: id, Name: name, Kind: StopKindArea, Polygons: polygons}
	var rings [][2]float64
	for _, ring := range polygons {
		rings = append(rings, ring...)
	}
	area.Lat, area.Lon = utils.Centroid(rings)
	return area
}

// NewGroup builds a location group, placing it at the centroid of its members.
func NewGroup(id, name string, members []*StopLocation) *StopLocation {
	group := &StopLocation{ID: id, Name: name, Kind: StopKindGroup, Members: members}
	points := make([][2]float64, 0, len(members))
	for _, member := range members {
		points = append(points, [2]float64{member.Lat, member.Lon})
	}
	group.Lat, group.Lon = utils.Centroid(points)
	return group
}
