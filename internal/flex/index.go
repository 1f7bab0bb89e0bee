package flex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/utils"
)

// Index holds the lookups built once per snapshot. It is never mutated after
// NewIndex returns, so any number of goroutines may read it.
type Index struct {
	trips        []*Trip
	tripsByID    map[string]*Trip
	tripsByStop  map[string][]*Trip
	groupsByStop map[string][]*network.StopLocation
	pickupStops  map[string]map[string]struct{}
	dropOffStops map[string]map[string]struct{}
	routes       map[string]*network.Route

	areas      rtree.RTreeG[*network.StopLocation]
	pointStops rtree.RTreeG[*network.StopLocation]
	areaCount  int
	stopCount  int
}

// NewIndex indexes trips against the stops of snapshot. Trips are reachable
// from every stop id they reference: areas under their own id, groups under
// each member id, point stops under their own id.
func NewIndex(snapshot *network.Snapshot, trips []*Trip) *Index {
	idx := &Index{
		trips:        trips,
		tripsByID:    make(map[string]*Trip, len(trips)),
		tripsByStop:  make(map[string][]*Trip),
		groupsByStop: make(map[string][]*network.StopLocation),
		pickupStops:  make(map[string]map[string]struct{}, len(trips)),
		dropOffStops: make(map[string]map[string]struct{}, len(trips)),
		routes:       make(map[string]*network.Route),
	}

	for _, trip := range trips {
		idx.tripsByID[trip.ID()] = trip
		if route := trip.Trip().Route; route != nil {
			idx.routes[route.ID] = route
		}

		pickup := make(map[string]struct{})
		dropOff := make(map[string]struct{})
		reachable := make(map[string]struct{})
		for _, st := range trip.StopTimes() {
			for _, stop := range st.Stop.Expand() {
				reachable[stop.ID] = struct{}{}
				if st.CanPickup() {
					pickup[stop.ID] = struct{}{}
				}
				if st.CanDropOff() {
					dropOff[stop.ID] = struct{}{}
				}
			}
		}
		idx.pickupStops[trip.ID()] = pickup
		idx.dropOffStops[trip.ID()] = dropOff
		for stopID := range reachable {
			idx.tripsByStop[stopID] = append(idx.tripsByStop[stopID], trip)
		}
	}
	for stopID, stopTrips := range idx.tripsByStop {
		sort.Slice(stopTrips, func(i, j int) bool { return stopTrips[i].ID() < stopTrips[j].ID() })
		idx.tripsByStop[stopID] = stopTrips
	}

	for _, stop := range snapshot.Stops() {
		switch stop.Kind {
		case network.StopKindGroup:
			for _, member := range stop.Members {
				idx.groupsByStop[member.ID] = append(idx.groupsByStop[member.ID], stop)
			}
		case network.StopKindArea:
			bounds := stop.Bounds()
			idx.areas.Insert(bounds.Min(), bounds.Max(), stop)
			idx.areaCount++
		default:
			point := [2]float64{stop.Lat, stop.Lon}
			idx.pointStops.Insert(point, point, stop)
			idx.stopCount++
		}
	}

	return idx
}

// Trips returns every indexed flex trip.
func (idx *Index) Trips() []*Trip {
	return idx.trips
}

// Trip looks up a flex trip by id.
func (idx *Index) Trip(id string) (*Trip, error) {
	trip, ok := idx.tripsByID[id]
	if !ok {
		return nil, fmt.Errorf("flex trip %s: %w", id, network.ErrNotFound)
	}
	return trip, nil
}

// Route looks up a route served by a flex trip.
func (idx *Index) Route(id string) (*network.Route, error) {
	route, ok := idx.routes[id]
	if !ok {
		return nil, fmt.Errorf("flex route %s: %w", id, network.ErrNotFound)
	}
	return route, nil
}

// TripsByStop returns the flex trips that reference stopID, ordered by trip id.
func (idx *Index) TripsByStop(stopID string) []*Trip {
	return idx.tripsByStop[stopID]
}

// GroupsByStop returns the location groups that contain stopID.
func (idx *Index) GroupsByStop(stopID string) []*network.StopLocation {
	return idx.groupsByStop[stopID]
}

// IsPickupStop reports whether trip allows pickup at stopID, directly or
// through a location group.
func (idx *Index) IsPickupStop(tripID, stopID string) bool {
	_, ok := idx.pickupStops[tripID][stopID]
	return ok
}

// IsDropOffStop reports whether trip allows drop-off at stopID, directly or
// through a location group.
func (idx *Index) IsDropOffStop(tripID, stopID string) bool {
	_, ok := idx.dropOffStops[tripID][stopID]
	return ok
}

// AreasContaining returns the flex areas whose polygons cover the coordinate,
// ordered by id.
func (idx *Index) AreasContaining(lat, lon float64) []*network.StopLocation {
	var areas []*network.StopLocation
	point := [2]float64{lat, lon}
	idx.areas.Search(point, point, func(_, _ [2]float64, area *network.StopLocation) bool {
		if area.CoversPoint(lat, lon) {
			areas = append(areas, area)
		}
		return true
	})
	sortByID(areas)
	return areas
}

// PointStopsWithin returns the point stops inside the bounding box of area
// that are covered by its polygons, ordered by id.
func (idx *Index) PointStopsWithin(area *network.StopLocation) []*network.StopLocation {
	bounds := area.Bounds()
	var stops []*network.StopLocation
	idx.pointStops.Search(bounds.Min(), bounds.Max(), func(_, _ [2]float64, stop *network.StopLocation) bool {
		if area.CoversPoint(stop.Lat, stop.Lon) {
			stops = append(stops, stop)
		}
		return true
	})
	sortByID(stops)
	return stops
}

// PointStopsNear returns the point stops within radiusMeters of the
// coordinate, ordered by id.
func (idx *Index) PointStopsNear(lat, lon, radiusMeters float64) []*network.StopLocation {
	bounds := utils.CalculateBounds(lat, lon, radiusMeters)
	var stops []*network.StopLocation
	idx.pointStops.Search(bounds.Min(), bounds.Max(), func(_, _ [2]float64, stop *network.StopLocation) bool {
		if utils.Distance(lat, lon, stop.Lat, stop.Lon) <= radiusMeters {
			stops = append(stops, stop)
		}
		return true
	})
	sortByID(stops)
	return stops
}

// AreaCount and StopCount size the spatial indexes.
func (idx *Index) AreaCount() int {
	return idx.areaCount
}

func (idx *Index) StopCount() int {
	return idx.stopCount
}

func sortByID(stops []*network.StopLocation) {
	sort.Slice(stops, func(i, j int) bool { return strings.Compare(stops[i].ID, stops[j].ID) < 0 })
}
