package flex

import (
	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
)

// AccessEgress connects the street network to a stop through a flex trip.
// Times are seconds: Times[0] before the flex leg, Times[1] on it, Times[2]
// after it. Window results are relative to the start of the search day.
type AccessEgress struct {
	Stop                   *network.StopLocation
	Times                  [3]int
	FromIndex              int
	ToIndex                int
	// StopTimeIndex is the stop time the boarding window and booking rule
	// are read from. Access connectors board at FromIndex; egress connectors
	// follow the EgressMode their template was built with.
	StopTimeIndex          int
	SecondsFromStartOfTime int
	Trip                   *Trip
	State                  street.StateID

	// DirectToStop is set when the vehicle itself serves Stop, with no
	// transfer walk between the flex leg and the stop.
	DirectToStop bool

	arena *street.Arena
}

// DurationSeconds is the total of the three legs.
func (ae *AccessEgress) DurationSeconds() int {
	return ae.Times[0] + ae.Times[1] + ae.Times[2]
}

// EarliestDepartureTime returns the earliest time at or after t at which the
// walk toward this connector's flex leg can start, or Infeasible.
func (ae *AccessEgress) EarliestDepartureTime(t int) int {
	tripDeparture := ae.Trip.EarliestDepartureTime(
		t+ae.Times[0]-ae.SecondsFromStartOfTime, ae.StopTimeIndex, ae.ToIndex, ae.Times[1])
	if tripDeparture == Infeasible {
		return Infeasible
	}
	return tripDeparture - ae.Times[0] + ae.SecondsFromStartOfTime
}

// LatestArrivalTime returns the latest time at or before t at which the walk
// after this connector's flex leg can end, or Infeasible.
func (ae *AccessEgress) LatestArrivalTime(t int) int {
	tripArrival := ae.Trip.LatestArrivalTime(
		t-ae.Times[2]-ae.SecondsFromStartOfTime, ae.FromIndex, ae.ToIndex, ae.Times[1])
	if tripArrival == Infeasible {
		return Infeasible
	}
	return tripArrival + ae.Times[2] + ae.SecondsFromStartOfTime
}

// BookingInfo is the booking rule at StopTimeIndex: the pickup rule when the
// connector boards there, the drop-off rule otherwise.
func (ae *AccessEgress) BookingInfo() *network.BookingInfo {
	if ae.StopTimeIndex == ae.FromIndex {
		return ae.Trip.PickupBookingInfo(ae.StopTimeIndex)
	}
	return ae.Trip.DropOffBookingInfo(ae.StopTimeIndex)
}

// SafeTotalTime finds the flex step behind State and returns the trip's
// conservative in-vehicle time for it, or Infeasible.
func (ae *AccessEgress) SafeTotalTime() float64 {
	step, ok := ae.flexStep()
	if !ok {
		return Infeasible
	}
	return ae.Trip.SafeTotalTime(step.FlexPath, ae.FromIndex, ae.ToIndex)
}

// MeanTotalTime is SafeTotalTime with the typical calibration.
func (ae *AccessEgress) MeanTotalTime() float64 {
	step, ok := ae.flexStep()
	if !ok {
		return Infeasible
	}
	return ae.Trip.MeanTotalTime(step.FlexPath, ae.FromIndex, ae.ToIndex)
}

func (ae *AccessEgress) flexStep() (street.Step, bool) {
	if ae.arena == nil {
		return street.Step{}, false
	}
	return ae.arena.FindLast(ae.State, street.StepFlex)
}
