package utils

import "math"

const (
	// RadiusOfEarthInMeters is RADIUS_OF_EARTH_IN_KM * 1000
	RadiusOfEarthInMeters = 6371010.0
)

// CoordinateBounds represents a bounding box with min/max latitude and longitude
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Min returns the lower-left corner as [lat, lon].
func (b CoordinateBounds) Min() [2]float64 {
	return [2]float64{b.MinLat, b.MinLon}
}

// Max returns the upper-right corner as [lat, lon].
func (b CoordinateBounds) Max() [2]float64 {
	return [2]float64{b.MaxLat, b.MaxLon}
}

// Distance calculates the distance between two points on the Earth.
// For short distances (under ~22km), it uses an Equirectangular
// approximation. For longer distances, it falls back to the exact formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if math.Abs(lat2-lat1) < 0.2 && math.Abs(lon2-lon1) < 0.2 {
		lat1Rad := lat1 * (math.Pi / 180)
		lat2Rad := lat2 * (math.Pi / 180)
		dLatRad := (lat2 - lat1) * (math.Pi / 180)
		dLonRad := (lon2 - lon1) * (math.Pi / 180)

		x := dLonRad * math.Cos((lat1Rad+lat2Rad)/2)
		y := dLatRad
		return RadiusOfEarthInMeters * math.Sqrt(x*x+y*y)
	}

	lat1Rad := lat1 * (math.Pi / 180)
	lon1Rad := lon1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	lon2Rad := lon2 * (math.Pi / 180)

	deltaLon := lon2Rad - lon1Rad

	y := math.Sqrt(math.Pow(math.Cos(lat2Rad)*math.Sin(deltaLon), 2) +
		math.Pow(math.Cos(lat1Rad)*math.Sin(lat2Rad)-math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon), 2))
	x := math.Sin(lat1Rad)*math.Sin(lat2Rad) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return RadiusOfEarthInMeters * math.Atan2(y, x)
}

// CalculateBounds returns the box extending distance meters around a point.
func CalculateBounds(lat, lon, distance float64) CoordinateBounds {
	latRadians := lat * math.Pi / 180
	lonRadians := lon * math.Pi / 180

	latRadius := RadiusOfEarthInMeters
	lonRadius := math.Cos(latRadians) * RadiusOfEarthInMeters

	latOffset := distance / latRadius
	lonOffset := distance / lonRadius

	return CoordinateBounds{
		MinLat: (latRadians - latOffset) * 180 / math.Pi,
		MaxLat: (latRadians + latOffset) * 180 / math.Pi,
		MinLon: (lonRadians - lonOffset) * 180 / math.Pi,
		MaxLon: (lonRadians + lonOffset) * 180 / math.Pi,
	}
}

// BoundsOf returns the bounding box of a set of [lat, lon] points.
// The zero box is returned for an empty set.
func BoundsOf(points [][2]float64) CoordinateBounds {
	if len(points) == 0 {
		return CoordinateBounds{}
	}
	bounds := CoordinateBounds{
		MinLat: points[0][0], MaxLat: points[0][0],
		MinLon: points[0][1], MaxLon: points[0][1],
	}
	for _, p := range points[1:] {
		bounds.MinLat = math.Min(bounds.MinLat, p[0])
		bounds.MaxLat = math.Max(bounds.MaxLat, p[0])
		bounds.MinLon = math.Min(bounds.MinLon, p[1])
		bounds.MaxLon = math.Max(bounds.MaxLon, p[1])
	}
	return bounds
}

// Centroid returns the arithmetic mean of a set of [lat, lon] points.
func Centroid(points [][2]float64) (lat, lon float64) {
	if len(points) == 0 {
		return 0, 0
	}
	for _, p := range points {
		lat += p[0]
		lon += p[1]
	}
	n := float64(len(points))
	return lat / n, lon / n
}

// PolygonContains reports whether the point lies inside the ring using the
// even-odd rule. The ring may or may not repeat its first vertex.
func PolygonContains(ring [][2]float64, lat, lon float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		latI, lonI := ring[i][0], ring[i][1]
		latJ, lonJ := ring[j][0], ring[j][1]
		if (latI > lat) != (latJ > lat) &&
			lon < (lonJ-lonI)*(lat-latI)/(latJ-latI)+lonI {
			inside = !inside
		}
	}
	return inside
}
