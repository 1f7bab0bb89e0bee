package network

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// ErrNotFound is returned when a lookup by id misses. During routing it means
// the snapshot is inconsistent, so callers treat it as a hard failure.
var ErrNotFound = errors.New("not found")

// SnapshotInput carries the raw entities a Snapshot is built from.
type SnapshotInput struct {
	Timezone  *time.Location
	Agencies  []*Agency
	Routes    []*Route
	Stops     []*StopLocation
	Trips     []*Trip
	StopTimes map[string][]StopTime // by trip id, ordered by stop sequence
	Calendars []Calendar
}

// Snapshot is an immutable view of the network. It is safe for concurrent readers.
type Snapshot struct {
	timezone *time.Location

	agencies  map[string]*Agency
	routes    map[string]*Route
	stops     map[string]*StopLocation
	trips     map[string]*Trip
	stopTimes map[string][]StopTime

	serviceCodes   map[string]int
	servicesByDate map[ServiceDate]*ServiceCodeSet
}

// NewSnapshot indexes the input and resolves every service id to a dense
// integer code, then computes the codes running on each calendar date.
func NewSnapshot(in SnapshotInput) *Snapshot {
	s := &Snapshot{
		timezone:       in.Timezone,
		agencies:       make(map[string]*Agency, len(in.Agencies)),
		routes:         make(map[string]*Route, len(in.Routes)),
		stops:          make(map[string]*StopLocation, len(in.Stops)),
		trips:          make(map[string]*Trip, len(in.Trips)),
		stopTimes:      make(map[string][]StopTime, len(in.StopTimes)),
		serviceCodes:   make(map[string]int),
		servicesByDate: make(map[ServiceDate]*ServiceCodeSet),
	}
	if s.timezone == nil {
		s.timezone = time.UTC
	}
	for _, a := range in.Agencies {
		s.agencies[a.ID] = a
	}
	for _, r := range in.Routes {
		s.routes[r.ID] = r
	}
	for _, stop := range in.Stops {
		s.stops[stop.ID] = stop
	}
	for _, t := range in.Trips {
		s.trips[t.ID] = t
	}
	for tripID, sts := range in.StopTimes {
		sorted := slices.Clone(sts)
		slices.SortStableFunc(sorted, func(a, b StopTime) int { return a.StopSequence - b.StopSequence })
		s.stopTimes[tripID] = sorted
	}

	serviceIDs := make(map[string]struct{})
	for _, c := range in.Calendars {
		serviceIDs[c.ServiceID] = struct{}{}
	}
	for _, t := range in.Trips {
		serviceIDs[t.ServiceID] = struct{}{}
	}
	ids := make([]string, 0, len(serviceIDs))
	for id := range serviceIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for code, id := range ids {
		s.serviceCodes[id] = code
	}

	for _, c := range in.Calendars {
		code := s.serviceCodes[c.ServiceID]
		for _, d := range c.ActiveDates() {
			set, ok := s.servicesByDate[d]
			if !ok {
				set = NewServiceCodeSet()
				s.servicesByDate[d] = set
			}
			set.Add(code)
		}
	}
	return s
}

func (s *Snapshot) Timezone() *time.Location {
	return s.timezone
}

func (s *Snapshot) Stop(id string) (*StopLocation, error) {
	stop, ok := s.stops[id]
	if !ok {
		return nil, fmt.Errorf("stop %q: %w", id, ErrNotFound)
	}
	return stop, nil
}

func (s *Snapshot) Trip(id string) (*Trip, error) {
	trip, ok := s.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %q: %w", id, ErrNotFound)
	}
	return trip, nil
}

func (s *Snapshot) Route(id string) (*Route, error) {
	route, ok := s.routes[id]
	if !ok {
		return nil, fmt.Errorf("route %q: %w", id, ErrNotFound)
	}
	return route, nil
}

// StopTimes returns the raw stop times of a trip ordered by stop sequence.
func (s *Snapshot) StopTimes(tripID string) []StopTime {
	return s.stopTimes[tripID]
}

// Trips returns every trip ordered by id.
func (s *Snapshot) Trips() []*Trip {
	trips := make([]*Trip, 0, len(s.trips))
	for _, t := range s.trips {
		trips = append(trips, t)
	}
	slices.SortFunc(trips, func(a, b *Trip) int { return strings.Compare(a.ID, b.ID) })
	return trips
}

// Stops returns every stop location ordered by id.
func (s *Snapshot) Stops() []*StopLocation {
	stops := make([]*StopLocation, 0, len(s.stops))
	for _, stop := range s.stops {
		stops = append(stops, stop)
	}
	slices.SortFunc(stops, func(a, b *StopLocation) int { return strings.Compare(a.ID, b.ID) })
	return stops
}

// StopsOfKind returns the stop locations of one kind ordered by id.
func (s *Snapshot) StopsOfKind(kind StopKind) []*StopLocation {
	var out []*StopLocation
	for _, stop := range s.Stops() {
		if stop.Kind == kind {
			out = append(out, stop)
		}
	}
	return out
}

// ServiceCode resolves a GTFS service id to its integer code.
func (s *Snapshot) ServiceCode(serviceID string) (int, bool) {
	code, ok := s.serviceCodes[serviceID]
	return code, ok
}

// ServiceCodesRunning returns the codes running on a date, or nil when the
// calendar has no data for that date.
func (s *Snapshot) ServiceCodesRunning(date ServiceDate) *ServiceCodeSet {
	return s.servicesByDate[date]
}
