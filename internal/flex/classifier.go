package flex

import (
	"errors"
	"log/slog"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/metrics"
	"flex.onebusaway.org/internal/network"
)

// Classification is the outcome of inspecting a trip's raw stop times.
type Classification int

const (
	ClassNotFlex Classification = iota
	ClassUnscheduled
	ClassScheduledDeviated
	ClassContinuousUnsupported
)

func (c Classification) String() string {
	switch c {
	case ClassUnscheduled:
		return "unscheduled"
	case ClassScheduledDeviated:
		return "scheduled_deviated"
	case ClassContinuousUnsupported:
		return "continuous_stops"
	}
	return "not_flex"
}

// Classify decides which flex variant, if any, a stop-time sequence is.
// The checks run in a fixed order and the first match wins.
func Classify(stopTimes []network.StopTime) Classification {
	switch {
	case IsUnscheduled(stopTimes):
		return ClassUnscheduled
	case IsScheduledDeviated(stopTimes):
		return ClassScheduledDeviated
	case HasContinuousStops(stopTimes):
		return ClassContinuousUnsupported
	}
	return ClassNotFlex
}

// IsUnscheduled reports whether every stop is an area or group and no stop
// carries an explicit arrival or departure time.
func IsUnscheduled(stopTimes []network.StopTime) bool {
	if len(stopTimes) == 0 {
		return false
	}
	for _, st := range stopTimes {
		if !st.Stop.IsArea() || st.HasScheduledTime() {
			return false
		}
	}
	return true
}

// IsScheduledDeviated reports whether at least one stop is an area or group,
// no stop allows continuous pickup or drop-off, point stops have no flex
// window and area stops have one.
func IsScheduledDeviated(stopTimes []network.StopTime) bool {
	anyArea := false
	for _, st := range stopTimes {
		if !isNotContinuous(st) {
			return false
		}
		if st.Stop.IsArea() {
			anyArea = true
			if !st.HasFlexWindow() {
				return false
			}
		} else if st.HasFlexWindow() {
			return false
		}
	}
	return anyArea
}

// HasContinuousStops reports whether any stop allows continuous pickup or drop-off.
func HasContinuousStops(stopTimes []network.StopTime) bool {
	for _, st := range stopTimes {
		if !isNotContinuous(st) {
			return true
		}
	}
	return false
}

func isNotContinuous(st network.StopTime) bool {
	return st.ContinuousPickup == gtfs.PickupDropOffPolicy_No &&
		st.ContinuousDropOff == gtfs.PickupDropOffPolicy_No
}

// NewTrip classifies and builds a flex trip. It returns (nil, nil) for trips
// that are not flex trips at all.
func NewTrip(trip *network.Trip, stopTimes []network.StopTime) (*Trip, error) {
	switch Classify(stopTimes) {
	case ClassUnscheduled:
		return NewUnscheduledTrip(trip, stopTimes)
	case ClassScheduledDeviated:
		return NewScheduledDeviatedTrip(trip, stopTimes)
	case ClassContinuousUnsupported:
		return nil, ErrContinuousStops
	}
	return nil, nil
}

// ErrContinuousStops rejects trips that use continuous pickup or drop-off.
var ErrContinuousStops = errors.New("continuous pickup/drop-off is not supported for flex trips")

// BuildTrips builds a flex trip for every trip of the snapshot that is one.
// Rejected trips are logged and skipped; the build itself never fails.
func BuildTrips(snapshot *network.Snapshot, logger *slog.Logger, m *metrics.Metrics) []*Trip {
	logger = logging.Component(logger, "flex_classifier")
	start := time.Now()

	var trips []*Trip
	for _, trip := range snapshot.Trips() {
		flexTrip, err := NewTrip(trip, snapshot.StopTimes(trip.ID))
		switch {
		case errors.Is(err, ErrContinuousStops):
			logger.Warn("skipping trip with continuous stops",
				slog.String("trip_id", trip.ID))
			m.RecordTripRejected(ClassContinuousUnsupported.String())
		case err != nil:
			logging.LogError(logger, "failed to build flex trip", err,
				slog.String("trip_id", trip.ID))
			m.RecordTripRejected("invalid_stop_times")
		case flexTrip != nil:
			trips = append(trips, flexTrip)
			m.RecordTripClassified(flexTrip.Kind().String())
		}
	}

	logging.LogOperation(logger, "flex_trips_built",
		slog.Int("trips", len(trips)),
		slog.Duration("duration", time.Since(start)))
	return trips
}
