package flex

import "flex.onebusaway.org/internal/network"

// ServiceCodeResolver resolves a trip's service id to its service code.
type ServiceCodeResolver interface {
	ServiceCode(serviceID string) (int, bool)
}

// ServiceDate is one calendar date in the search window.
type ServiceDate struct {
	Date network.ServiceDate

	// SecondsFromStartOfTime is the offset of this date's service-day start
	// from the start of the search day.
	SecondsFromStartOfTime int

	// ServicesRunning is nil when the snapshot has no calendar data for the
	// date, which is treated as no service.
	ServicesRunning *network.ServiceCodeSet
}

// IsTripRunning reports whether trip's service runs on this date.
func (d ServiceDate) IsTripRunning(trip *Trip, resolver ServiceCodeResolver) bool {
	if d.ServicesRunning == nil {
		return false
	}
	code, ok := resolver.ServiceCode(trip.Trip().ServiceID)
	if !ok {
		return false
	}
	return d.ServicesRunning.Contains(code)
}
