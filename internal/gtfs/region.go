package gtfs

import "flex.onebusaway.org/internal/network"

// RegionBounds is the center and span of the area a feed covers.
type RegionBounds struct {
	Lat     float64
	Lon     float64
	LatSpan float64
	LonSpan float64
}

// ComputeRegionBounds calculates the geographic boundaries of the feed from
// every stop, area polygon and group member. Returns nil if no stops exist.
func ComputeRegionBounds(stops []*network.StopLocation) *RegionBounds {
	if len(stops) == 0 {
		return nil
	}

	var minLat, maxLat, minLon, maxLon float64
	first := true

	for _, stop := range stops {
		b := stop.Bounds()
		if first {
			minLat, maxLat = b.MinLat, b.MaxLat
			minLon, maxLon = b.MinLon, b.MaxLon
			first = false
			continue
		}

		minLat = min(minLat, b.MinLat)
		maxLat = max(maxLat, b.MaxLat)
		minLon = min(minLon, b.MinLon)
		maxLon = max(maxLon, b.MaxLon)
	}

	return &RegionBounds{
		Lat:     (minLat + maxLat) / 2,
		Lon:     (minLon + maxLon) / 2,
		LatSpan: maxLat - minLat,
		LonSpan: maxLon - minLon,
	}
}

// RegionBounds returns the bounds of the loaded feed, or nil before the
// first successful load.
func (manager *Manager) RegionBounds() *RegionBounds {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.regionBounds
}
