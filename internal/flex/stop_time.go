package flex

import (
	"math"

	"github.com/OneBusAway/go-gtfs"

	"flex.onebusaway.org/internal/network"
)

const (
	// MissingValue marks a stop-time time that the source data left unset.
	MissingValue = math.MinInt32
	// Infeasible is returned by the window arithmetic when no departure or
	// arrival satisfies the request. It is a result, never an input.
	Infeasible = -1
)

// StopTime is one stop of a flex trip, normalised from the raw stop time.
type StopTime struct {
	Stop *network.StopLocation

	ArrivalTime     int
	DepartureTime   int
	FlexWindowStart int
	FlexWindowEnd   int

	PickupType  gtfs.PickupDropOffPolicy
	DropOffType gtfs.PickupDropOffPolicy

	SafeDurationFactor *float64
	SafeDurationOffset *float64
	MeanDurationFactor *float64
	MeanDurationOffset *float64

	PickupBookingInfo  *network.BookingInfo
	DropOffBookingInfo *network.BookingInfo
}

// CanPickup reports whether boarding is permitted here.
func (st StopTime) CanPickup() bool {
	return st.PickupType != gtfs.PickupDropOffPolicy_No
}

// CanDropOff reports whether alighting is permitted here.
func (st StopTime) CanDropOff() bool {
	return st.DropOffType != gtfs.PickupDropOffPolicy_No
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func newStopTime(raw network.StopTime) StopTime {
	return StopTime{
		Stop:               raw.Stop,
		ArrivalTime:        MissingValue,
		DepartureTime:      MissingValue,
		FlexWindowStart:    valueOr(raw.FlexWindowStart, MissingValue),
		FlexWindowEnd:      valueOr(raw.FlexWindowEnd, MissingValue),
		PickupType:         raw.PickupType,
		DropOffType:        raw.DropOffType,
		SafeDurationFactor: raw.SafeDurationFactor,
		SafeDurationOffset: raw.SafeDurationOffset,
		MeanDurationFactor: raw.MeanDurationFactor,
		MeanDurationOffset: raw.MeanDurationOffset,
		PickupBookingInfo:  raw.PickupBookingInfo,
		DropOffBookingInfo: raw.DropOffBookingInfo,
	}
}

// newScheduledDeviatedStopTime substitutes the window bounds for missing
// scheduled times: departure falls back to the window start and arrival to
// the window end. An explicit arrival stands in for a missing departure and
// vice versa before the window is consulted.
func newScheduledDeviatedStopTime(raw network.StopTime) StopTime {
	st := newStopTime(raw)
	departure, arrival := raw.DepartureTime, raw.ArrivalTime
	if departure == nil {
		departure = arrival
	}
	if arrival == nil {
		arrival = departure
	}
	st.DepartureTime = valueOr(departure, st.FlexWindowStart)
	st.ArrivalTime = valueOr(arrival, st.FlexWindowEnd)
	return st
}

func newUnscheduledStopTime(raw network.StopTime) StopTime {
	return newStopTime(raw)
}

// calibratedTime applies factor*duration + offset*60 when both numbers are set.
func calibratedTime(factor, offset *float64, durationSeconds int) float64 {
	if factor == nil || offset == nil {
		return float64(durationSeconds)
	}
	return *factor*float64(durationSeconds) + *offset*60
}
