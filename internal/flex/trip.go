// Package flex computes feasible connections between the street network and
// demand-responsive transit: which flex trips can be boarded or alighted from
// a walking candidate, at which stop-time indices, within which time windows.
package flex

import (
	"errors"
	"fmt"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
)

// Kind tags the variant of a flex trip.
type Kind int

const (
	KindScheduledDeviated Kind = iota + 1
	KindUnscheduled
)

func (k Kind) String() string {
	switch k {
	case KindScheduledDeviated:
		return "scheduled_deviated"
	case KindUnscheduled:
		return "unscheduled"
	}
	return "unknown"
}

// ErrIncompatibleStopTimes is wrapped by every construction failure.
var ErrIncompatibleStopTimes = errors.New("incompatible stop times")

// InvalidStopTimesError reports a stop-time table that does not have the shape
// the requested trip variant requires.
type InvalidStopTimesError struct {
	TripID string
	Kind   Kind
}

func (e *InvalidStopTimesError) Error() string {
	return fmt.Sprintf("trip %s: %v for %s flex trip", e.TripID, ErrIncompatibleStopTimes, e.Kind)
}

func (e *InvalidStopTimesError) Unwrap() error {
	return ErrIncompatibleStopTimes
}

// EgressMode selects which stop-time index an unscheduled egress template
// exposes for downstream lookups.
type EgressMode int

const (
	// EgressModeRaptor exposes the boarding index.
	EgressModeRaptor EgressMode = iota
	// EgressModeDirect exposes the alighting index.
	EgressModeDirect
)

// Trip is a flex trip. It is immutable once built and safe for concurrent use.
type Trip struct {
	kind      Kind
	trip      *network.Trip
	stopTimes []StopTime
}

// NewScheduledDeviatedTrip builds a scheduled-deviated trip, failing when the
// stop times are not of that shape.
func NewScheduledDeviatedTrip(trip *network.Trip, stopTimes []network.StopTime) (*Trip, error) {
	if !IsScheduledDeviated(stopTimes) {
		return nil, &InvalidStopTimesError{TripID: trip.ID, Kind: KindScheduledDeviated}
	}
	sts := make([]StopTime, len(stopTimes))
	for i, raw := range stopTimes {
		sts[i] = newScheduledDeviatedStopTime(raw)
	}
	return &Trip{kind: KindScheduledDeviated, trip: trip, stopTimes: sts}, nil
}

// NewUnscheduledTrip builds an unscheduled trip, failing when the stop times
// are not of that shape.
func NewUnscheduledTrip(trip *network.Trip, stopTimes []network.StopTime) (*Trip, error) {
	if !IsUnscheduled(stopTimes) {
		return nil, &InvalidStopTimesError{TripID: trip.ID, Kind: KindUnscheduled}
	}
	sts := make([]StopTime, len(stopTimes))
	for i, raw := range stopTimes {
		sts[i] = newUnscheduledStopTime(raw)
	}
	return &Trip{kind: KindUnscheduled, trip: trip, stopTimes: sts}, nil
}

func (t *Trip) Kind() Kind {
	return t.kind
}

func (t *Trip) ID() string {
	return t.trip.ID
}

// Trip returns the scheduled trip this flex trip is built on.
func (t *Trip) Trip() *network.Trip {
	return t.trip
}

// StopTimes returns the stop-time table. Callers must not modify it.
func (t *Trip) StopTimes() []StopTime {
	return t.stopTimes
}

// StopTime returns the stop time at index i.
func (t *Trip) StopTime(i int) StopTime {
	return t.stopTimes[i]
}

// Stops returns the distinct stop locations the trip references, in order.
func (t *Trip) Stops() []*network.StopLocation {
	seen := make(map[string]struct{}, len(t.stopTimes))
	var stops []*network.StopLocation
	for _, st := range t.stopTimes {
		if _, ok := seen[st.Stop.ID]; ok {
			continue
		}
		seen[st.Stop.ID] = struct{}{}
		stops = append(stops, st.Stop)
	}
	return stops
}

func (t *Trip) PickupBookingInfo(i int) *network.BookingInfo {
	return t.stopTimes[i].PickupBookingInfo
}

func (t *Trip) DropOffBookingInfo(i int) *network.BookingInfo {
	return t.stopTimes[i].DropOffBookingInfo
}

// IsBoardingPossible reports whether any stop time serving stop allows pickup.
func (t *Trip) IsBoardingPossible(stop *network.StopLocation) bool {
	return len(t.boardingIndices(stop)) > 0
}

// IsAlightingPossible reports whether any stop time serving stop allows drop-off.
func (t *Trip) IsAlightingPossible(stop *network.StopLocation) bool {
	return len(t.alightingIndices(stop)) > 0
}

// boardingIndices lists, in increasing order, the indices that serve stop
// directly or through a location group and permit pickup.
func (t *Trip) boardingIndices(stop *network.StopLocation) []int {
	var indices []int
	for i, st := range t.stopTimes {
		if st.CanPickup() && st.Stop.Contains(stop) {
			indices = append(indices, i)
		}
	}
	return indices
}

// alightingIndices lists, in decreasing order, the indices that serve stop
// directly or through a location group and permit drop-off.
func (t *Trip) alightingIndices(stop *network.StopLocation) []int {
	var indices []int
	for i := len(t.stopTimes) - 1; i >= 0; i-- {
		st := t.stopTimes[i]
		if st.CanDropOff() && st.Stop.Contains(stop) {
			indices = append(indices, i)
		}
	}
	return indices
}

// AccessTemplates returns one template for every (boarding, alighting,
// alighting stop) combination reachable from the access candidate: boarding
// at each index serving the candidate with pickup permitted, alighting at
// every later-or-equal index with drop-off permitted.
func (t *Trip) AccessTemplates(access street.NearbyStop, date ServiceDate, calculator street.PathCalculator) []*AccessTemplate {
	calculator = t.pathCalculator(calculator)

	var templates []*AccessTemplate
	for _, from := range t.boardingIndices(access.Stop) {
		for to := from; to < len(t.stopTimes); to++ {
			if !t.stopTimes[to].CanDropOff() {
				continue
			}
			for _, stop := range t.stopTimes[to].Stop.Expand() {
				templates = append(templates, &AccessTemplate{template: template{
					Candidate:    access,
					Trip:         t,
					FromIndex:    from,
					ToIndex:      to,
					TransferStop: stop,
					Date:         date,
					calculator:   calculator,
				}})
			}
		}
	}
	return templates
}

// EgressTemplates is the time-reversed mirror of AccessTemplates: for each
// alighting index serving the candidate, every earlier-or-equal index with
// pickup permitted is a boarding option.
func (t *Trip) EgressTemplates(egress street.NearbyStop, date ServiceDate, calculator street.PathCalculator, mode EgressMode) []*EgressTemplate {
	calculator = t.pathCalculator(calculator)

	var templates []*EgressTemplate
	for _, to := range t.alightingIndices(egress.Stop) {
		for from := to; from >= 0; from-- {
			if !t.stopTimes[from].CanPickup() {
				continue
			}
			effective := from
			if mode == EgressModeDirect {
				effective = to
			}
			for _, stop := range t.stopTimes[from].Stop.Expand() {
				templates = append(templates, &EgressTemplate{
					template: template{
						Candidate:    egress,
						Trip:         t,
						FromIndex:    from,
						ToIndex:      to,
						TransferStop: stop,
						Date:         date,
						calculator:   calculator,
					},
					StopTimeIndex: effective,
				})
			}
		}
	}
	return templates
}

func (t *Trip) pathCalculator(calculator street.PathCalculator) street.PathCalculator {
	if t.kind == KindScheduledDeviated {
		return &ScheduledCalculator{Delegate: calculator, Trip: t}
	}
	return calculator
}

// EarliestDepartureTime returns the earliest time, no earlier than
// departureTime, at which the trip can be boarded at fromIndex, or Infeasible.
func (t *Trip) EarliestDepartureTime(departureTime, fromIndex, toIndex, flexTime int) int {
	if t.kind == KindUnscheduled {
		return unscheduledEarliestDeparture(t.stopTimes, departureTime, fromIndex)
	}
	return scheduledEarliestDeparture(t.stopTimes, departureTime, fromIndex)
}

// LatestArrivalTime returns the latest time, no later than arrivalTime, at
// which the trip can be alighted at toIndex, or Infeasible.
func (t *Trip) LatestArrivalTime(arrivalTime, fromIndex, toIndex, flexTime int) int {
	if t.kind == KindUnscheduled {
		return unscheduledLatestArrival(t.stopTimes, arrivalTime, toIndex)
	}
	return scheduledLatestArrival(t.stopTimes, arrivalTime, toIndex)
}

// SafeTotalTime is the conservative in-vehicle time between the two indices
// for the given street path, in seconds, or Infeasible.
func (t *Trip) SafeTotalTime(path *street.FlexPath, fromIndex, toIndex int) float64 {
	from := t.stopTimes[fromIndex]
	return t.totalTime(path, fromIndex, toIndex, from.SafeDurationFactor, from.SafeDurationOffset)
}

// MeanTotalTime is the typical in-vehicle time between the two indices for
// the given street path, in seconds, or Infeasible.
func (t *Trip) MeanTotalTime(path *street.FlexPath, fromIndex, toIndex int) float64 {
	from := t.stopTimes[fromIndex]
	return t.totalTime(path, fromIndex, toIndex, from.MeanDurationFactor, from.MeanDurationOffset)
}

// totalTime always calibrates with the boarding stop time's numbers, even
// when only the alighting stop time is an area.
func (t *Trip) totalTime(path *street.FlexPath, fromIndex, toIndex int, factor, offset *float64) float64 {
	var duration int
	switch {
	case path != nil:
		duration = path.DurationSeconds
	case t.kind == KindScheduledDeviated:
		scheduled, ok := scheduledDuration(t, fromIndex, toIndex)
		if !ok {
			return Infeasible
		}
		duration = scheduled
	default:
		return Infeasible
	}

	if t.stopTimes[fromIndex].Stop.IsArea() || t.stopTimes[toIndex].Stop.IsArea() {
		return calibratedTime(factor, offset, duration)
	}
	return float64(duration)
}
