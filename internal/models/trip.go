package models

import "flex.onebusaway.org/internal/flex"

type FlexStopTimeModel struct {
	StopID          string `json:"stopId"`
	StopKind        string `json:"stopKind"`
	ArrivalTime     *int   `json:"arrivalTime,omitempty"`
	DepartureTime   *int   `json:"departureTime,omitempty"`
	FlexWindowStart *int   `json:"startPickupDropOffWindow,omitempty"`
	FlexWindowEnd   *int   `json:"endPickupDropOffWindow,omitempty"`
	PickupType      int    `json:"pickupType"`
	DropOffType     int    `json:"dropOffType"`
}

type TripModel struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	RouteID   string              `json:"routeId,omitempty"`
	ServiceID string              `json:"serviceId"`
	Headsign  string              `json:"tripHeadsign,omitempty"`
	StopTimes []FlexStopTimeModel `json:"stopTimes"`
}

// optionalTime drops the missing-value sentinel.
func optionalTime(v int) *int {
	if v == flex.MissingValue {
		return nil
	}
	return &v
}

func NewTripModel(trip *flex.Trip) TripModel {
	raw := trip.Trip()
	m := TripModel{
		ID:        trip.ID(),
		Kind:      trip.Kind().String(),
		ServiceID: raw.ServiceID,
		Headsign:  raw.Headsign,
	}
	if raw.Route != nil {
		m.RouteID = raw.Route.ID
	}
	for _, st := range trip.StopTimes() {
		m.StopTimes = append(m.StopTimes, FlexStopTimeModel{
			StopID:          st.Stop.ID,
			StopKind:        st.Stop.Kind.String(),
			ArrivalTime:     optionalTime(st.ArrivalTime),
			DepartureTime:   optionalTime(st.DepartureTime),
			FlexWindowStart: optionalTime(st.FlexWindowStart),
			FlexWindowEnd:   optionalTime(st.FlexWindowEnd),
			PickupType:      int(st.PickupType),
			DropOffType:     int(st.DropOffType),
		})
	}
	return m
}
