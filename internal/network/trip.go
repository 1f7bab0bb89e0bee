package network

import (
	"time"

	"github.com/OneBusAway/go-gtfs"
)

type Agency struct {
	ID       string
	Name     string
	Timezone string
	Phone    string
}

type Route struct {
	ID        string
	Agency    *Agency
	ShortName string
	LongName  string
	Type      gtfs.RouteType
}

// Trip is the scheduled trip a flex trip is built on.
type Trip struct {
	ID        string
	Route     *Route
	ServiceID string
	Headsign  string
	ShapeID   string
}

// BookingType mirrors booking_type in booking_rules.txt.
type BookingType int

const (
	BookingRealTime BookingType = iota
	BookingSameDay
	BookingPriorDays
)

// BookingInfo describes how a pickup or drop-off has to be arranged.
type BookingInfo struct {
	RuleID              string
	Type                BookingType
	PriorNoticeDuration time.Duration
	Message             string
	PhoneNumber         string
	InfoURL             string
	BookingURL          string
}

// StopTime is one raw row of a trip's stop_times before flex classification.
// Optional values are nil when the source column was empty.
type StopTime struct {
	Stop         *StopLocation
	StopSequence int

	// Seconds since the start of the service day.
	ArrivalTime     *int
	DepartureTime   *int
	FlexWindowStart *int
	FlexWindowEnd   *int

	PickupType        gtfs.PickupDropOffPolicy
	DropOffType       gtfs.PickupDropOffPolicy
	ContinuousPickup  gtfs.PickupDropOffPolicy
	ContinuousDropOff gtfs.PickupDropOffPolicy

	SafeDurationFactor *float64
	SafeDurationOffset *float64
	MeanDurationFactor *float64
	MeanDurationOffset *float64

	PickupBookingInfo  *BookingInfo
	DropOffBookingInfo *BookingInfo
}

// HasFlexWindow reports whether either bound of the pickup/drop-off window is set.
func (st StopTime) HasFlexWindow() bool {
	return st.FlexWindowStart != nil || st.FlexWindowEnd != nil
}

// HasScheduledTime reports whether an explicit arrival or departure is set.
func (st StopTime) HasScheduledTime() bool {
	return st.ArrivalTime != nil || st.DepartureTime != nil
}

// Seconds returns a pointer to n, for building optional stop-time values.
func Seconds(n int) *int {
	return &n
}
