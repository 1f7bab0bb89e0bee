package flex

import "math"

// Open-ended requests for the scheduled duration.
const (
	minTime = math.MinInt32
	maxTime = math.MaxInt32
)

// Scheduled-deviated trips carry a concrete time on every stop time once the
// window bounds have been substituted, so the outward walk normally stops at
// the requested index. It keeps walking past MissingValue for tables that
// reach here without one.

func scheduledEarliestDeparture(stopTimes []StopTime, departureTime, fromIndex int) int {
	boundary := MissingValue
	for i := fromIndex; boundary == MissingValue && i >= 0; i-- {
		boundary = stopTimes[i].DepartureTime
	}
	if boundary != MissingValue && boundary >= departureTime {
		return boundary
	}
	return Infeasible
}

func scheduledLatestArrival(stopTimes []StopTime, arrivalTime, toIndex int) int {
	boundary := MissingValue
	for i := toIndex; boundary == MissingValue && i < len(stopTimes); i++ {
		boundary = stopTimes[i].ArrivalTime
	}
	if boundary != MissingValue && boundary <= arrivalTime {
		return boundary
	}
	return Infeasible
}

// scheduledDuration is the scheduled in-vehicle time between two indices,
// used when no street path is available. A ride must take time: boarding and
// alighting at the same scheduled instant, as on a single point stop, has no
// duration.
func scheduledDuration(t *Trip, fromIndex, toIndex int) (int, bool) {
	departure := scheduledEarliestDeparture(t.stopTimes, minTime, fromIndex)
	arrival := scheduledLatestArrival(t.stopTimes, maxTime, toIndex)
	if departure == Infeasible || arrival == Infeasible || arrival <= departure {
		return 0, false
	}
	return arrival - departure, true
}

// An unset window bound leaves that side of the window open.

func unscheduledEarliestDeparture(stopTimes []StopTime, departureTime, fromIndex int) int {
	end := stopTimes[fromIndex].FlexWindowEnd
	if end != MissingValue && departureTime > end {
		return Infeasible
	}
	return departureTime
}

func unscheduledLatestArrival(stopTimes []StopTime, arrivalTime, toIndex int) int {
	start := stopTimes[toIndex].FlexWindowStart
	if start != MissingValue && arrivalTime < start {
		return Infeasible
	}
	return arrivalTime
}
