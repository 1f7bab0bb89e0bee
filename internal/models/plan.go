package models

import (
	"time"

	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/network"
)

type PlaceModel struct {
	Name   string  `json:"name"`
	StopID string  `json:"stopId,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type BookingInfoModel struct {
	RuleID                     string `json:"ruleId"`
	Type                       int    `json:"bookingType"`
	PriorNoticeDurationMinutes int    `json:"priorNoticeDurationMinutes,omitempty"`
	Message                    string `json:"message,omitempty"`
	PhoneNumber                string `json:"phoneNumber,omitempty"`
	InfoURL                    string `json:"infoUrl,omitempty"`
	BookingURL                 string `json:"bookingUrl,omitempty"`
}

func NewBookingInfoModel(info *network.BookingInfo) *BookingInfoModel {
	if info == nil {
		return nil
	}
	return &BookingInfoModel{
		RuleID:                     info.RuleID,
		Type:                       int(info.Type),
		PriorNoticeDurationMinutes: int(info.PriorNoticeDuration / time.Minute),
		Message:                    info.Message,
		PhoneNumber:                info.PhoneNumber,
		InfoURL:                    info.InfoURL,
		BookingURL:                 info.BookingURL,
	}
}

type LegModel struct {
	Mode           string     `json:"mode"`
	From           PlaceModel `json:"from"`
	To             PlaceModel `json:"to"`
	StartTime      int64      `json:"startTime"`
	EndTime        int64      `json:"endTime"`
	DistanceMeters float64    `json:"distance"`
	Geometry       string     `json:"legGeometry,omitempty"`

	TripID             string            `json:"tripId,omitempty"`
	RouteID            string            `json:"routeId,omitempty"`
	ServiceDate        string            `json:"serviceDate,omitempty"`
	FromStopIndex      *int              `json:"fromStopIndex,omitempty"`
	ToStopIndex        *int              `json:"toStopIndex,omitempty"`
	PickupBookingInfo  *BookingInfoModel `json:"pickupBookingInfo,omitempty"`
	DropOffBookingInfo *BookingInfoModel `json:"dropOffBookingInfo,omitempty"`
}

func placeModel(p flex.LegPlace) PlaceModel {
	return PlaceModel{Name: p.Name, StopID: p.StopID, Lat: p.Lat, Lon: p.Lon}
}

func NewLegModel(leg flex.Leg) LegModel {
	m := LegModel{
		Mode:           string(leg.Mode),
		From:           placeModel(leg.From),
		To:             placeModel(leg.To),
		StartTime:      leg.StartTime.UnixMilli(),
		EndTime:        leg.EndTime.UnixMilli(),
		DistanceMeters: leg.DistanceMeters,
		Geometry:       leg.Geometry,
	}
	if leg.Mode == flex.LegModeFlex {
		from, to := leg.FromStopIndex, leg.ToStopIndex
		m.TripID = leg.TripID
		m.RouteID = leg.RouteID
		m.ServiceDate = leg.ServiceDate.String()
		m.FromStopIndex = &from
		m.ToStopIndex = &to
		m.PickupBookingInfo = NewBookingInfoModel(leg.PickupBookingInfo)
		m.DropOffBookingInfo = NewBookingInfoModel(leg.DropOffBookingInfo)
	}
	return m
}

type ItineraryModel struct {
	StartTime int64      `json:"startTime"`
	EndTime   int64      `json:"endTime"`
	Duration  int        `json:"duration"`
	Legs      []LegModel `json:"legs"`
}

func NewItineraryModel(it *flex.Itinerary) ItineraryModel {
	legs := make([]LegModel, 0, len(it.Legs))
	for _, leg := range it.Legs {
		legs = append(legs, NewLegModel(leg))
	}
	return ItineraryModel{
		StartTime: it.StartTime().UnixMilli(),
		EndTime:   it.EndTime().UnixMilli(),
		Duration:  it.DurationSeconds(),
		Legs:      legs,
	}
}

// ConnectorModel is an access or egress a fixed-route search can start or
// end with. Times are seconds: walk, ride and walk again.
type ConnectorModel struct {
	StopID                 string `json:"stopId"`
	TripID                 string `json:"tripId"`
	FromStopIndex          int    `json:"fromStopIndex"`
	ToStopIndex            int    `json:"toStopIndex"`
	StopTimeIndex          int    `json:"stopTimeIndex"`
	Times                  [3]int `json:"times"`
	SecondsFromStartOfTime int    `json:"secondsFromStartOfTime"`
	DirectToStop           bool   `json:"directToStop"`

	BookingInfo *BookingInfoModel `json:"bookingInfo,omitempty"`
}

func NewConnectorModel(ae *flex.AccessEgress) ConnectorModel {
	return ConnectorModel{
		StopID:                 ae.Stop.ID,
		TripID:                 ae.Trip.ID(),
		FromStopIndex:          ae.FromIndex,
		ToStopIndex:            ae.ToIndex,
		StopTimeIndex:          ae.StopTimeIndex,
		Times:                  ae.Times,
		SecondsFromStartOfTime: ae.SecondsFromStartOfTime,
		DirectToStop:           ae.DirectToStop,
		BookingInfo:            NewBookingInfoModel(ae.BookingInfo()),
	}
}

type PlanModel struct {
	RequestID   string           `json:"requestId"`
	SearchTime  int64            `json:"searchTime"`
	Itineraries []ItineraryModel `json:"itineraries"`
	Accesses    []ConnectorModel `json:"accesses,omitempty"`
	Egresses    []ConnectorModel `json:"egresses,omitempty"`
}

// NewPlanModel converts a search result. Connectors are included only when
// withConnectors is set.
func NewPlanModel(requestID string, searchTime time.Time, itineraries []*flex.Itinerary, accesses, egresses []*flex.AccessEgress, withConnectors bool) PlanModel {
	m := PlanModel{
		RequestID:   requestID,
		SearchTime:  searchTime.UnixMilli(),
		Itineraries: make([]ItineraryModel, 0, len(itineraries)),
	}
	for _, it := range itineraries {
		m.Itineraries = append(m.Itineraries, NewItineraryModel(it))
	}
	if withConnectors {
		m.Accesses = connectorModels(accesses)
		m.Egresses = connectorModels(egresses)
	}
	return m
}

func connectorModels(connectors []*flex.AccessEgress) []ConnectorModel {
	out := make([]ConnectorModel, 0, len(connectors))
	for _, ae := range connectors {
		out = append(out, NewConnectorModel(ae))
	}
	return out
}
