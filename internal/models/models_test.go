package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/network"
)

func TestNewOKResponse(t *testing.T) {
	now := time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)
	response := NewOKResponse(NewCurrentTimeData(now), clock.NewMockClock(now))

	assert.Equal(t, 200, response.Code)
	assert.Equal(t, now.UnixMilli(), response.CurrentTime)
	assert.Equal(t, "OK", response.Text)

	body, err := json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"readableTime":"2024-06-10T17:00:00Z"`)
}

func TestNewErrorResponseOmitsData(t *testing.T) {
	response := NewErrorResponse(404, "resource not found", clock.NewMockClock(time.Unix(0, 0)))
	body, err := json.Marshal(response)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"data"`)
	assert.Contains(t, string(body), `"text":"resource not found"`)
}

func TestNewTripModel(t *testing.T) {
	zone := &network.StopLocation{ID: "zone1", Kind: network.StopKindArea}
	raw := &network.Trip{ID: "t1", ServiceID: "wk", Route: &network.Route{ID: "r1"}}
	trip, err := flex.NewUnscheduledTrip(raw, []network.StopTime{
		{
			Stop:            zone,
			FlexWindowStart: network.Seconds(8 * 3600),
			FlexWindowEnd:   network.Seconds(18 * 3600),
			PickupType:      gtfs.PickupDropOffPolicy_PhoneAgency,
			DropOffType:     gtfs.PickupDropOffPolicy_Yes,
		},
	})
	require.NoError(t, err)

	m := NewTripModel(trip)
	assert.Equal(t, "t1", m.ID)
	assert.Equal(t, "unscheduled", m.Kind)
	assert.Equal(t, "r1", m.RouteID)
	require.Len(t, m.StopTimes, 1)

	st := m.StopTimes[0]
	assert.Equal(t, "AREA", st.StopKind)
	assert.Nil(t, st.ArrivalTime)
	assert.Nil(t, st.DepartureTime)
	require.NotNil(t, st.FlexWindowStart)
	assert.Equal(t, 8*3600, *st.FlexWindowStart)
	assert.Equal(t, int(gtfs.PickupDropOffPolicy_PhoneAgency), st.PickupType)
}

func TestNewLegModel(t *testing.T) {
	start := time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)
	info := &network.BookingInfo{
		RuleID:              "br1",
		Type:                network.BookingSameDay,
		PriorNoticeDuration: 30 * time.Minute,
		Message:             "Call ahead",
	}

	walk := NewLegModel(flex.Leg{
		Mode:      flex.LegModeWalk,
		From:      flex.LegPlace{Name: "Origin", Lat: 47.6, Lon: -122.33},
		To:        flex.LegPlace{Name: "Stop 1", StopID: "s1"},
		StartTime: start,
		EndTime:   start.Add(2 * time.Minute),
	})
	assert.Equal(t, "WALK", walk.Mode)
	assert.Nil(t, walk.FromStopIndex)
	assert.Empty(t, walk.TripID)

	ride := NewLegModel(flex.Leg{
		Mode:              flex.LegModeFlex,
		StartTime:         start,
		EndTime:           start.Add(10 * time.Minute),
		TripID:            "t1",
		RouteID:           "r1",
		ServiceDate:       network.ServiceDate{Year: 2024, Month: time.June, Day: 10},
		FromStopIndex:     0,
		ToStopIndex:       1,
		PickupBookingInfo: info,
	})
	assert.Equal(t, "20240610", ride.ServiceDate)
	require.NotNil(t, ride.FromStopIndex)
	assert.Equal(t, 0, *ride.FromStopIndex)
	require.NotNil(t, ride.PickupBookingInfo)
	assert.Equal(t, 30, ride.PickupBookingInfo.PriorNoticeDurationMinutes)
	assert.Equal(t, 1, ride.PickupBookingInfo.Type)
	assert.Nil(t, ride.DropOffBookingInfo)

	body, err := json.Marshal(ride)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"fromStopIndex":0`)
}
