package flex

import (
	"time"

	"github.com/OneBusAway/go-gtfs"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
)

var (
	testRoute = &network.Route{ID: "r1", ShortName: "Dial-a-ride", Type: gtfs.RouteType_Bus}
	testDate  = network.ServiceDate{Year: 2024, Month: time.June, Day: 12}
)

func square(id string, lat, lon, half float64) *network.StopLocation {
	return network.NewArea(id, id, [][][2]float64{{
		{lat - half, lon - half},
		{lat - half, lon + half},
		{lat + half, lon + half},
		{lat + half, lon - half},
	}})
}

func point(id string, lat, lon float64) *network.StopLocation {
	return &network.StopLocation{ID: id, Name: id, Kind: network.StopKindPoint, Lat: lat, Lon: lon}
}

// areaStop is a stop time on an area or group served within [start, end].
func areaStop(stop *network.StopLocation, start, end int) network.StopTime {
	return network.StopTime{
		Stop:              stop,
		FlexWindowStart:   network.Seconds(start),
		FlexWindowEnd:     network.Seconds(end),
		ContinuousPickup:  gtfs.PickupDropOffPolicy_No,
		ContinuousDropOff: gtfs.PickupDropOffPolicy_No,
	}
}

// pointStop is a stop time on a point stop with a fixed schedule.
func pointStop(stop *network.StopLocation, arrival, departure int) network.StopTime {
	return network.StopTime{
		Stop:              stop,
		ArrivalTime:       network.Seconds(arrival),
		DepartureTime:     network.Seconds(departure),
		ContinuousPickup:  gtfs.PickupDropOffPolicy_No,
		ContinuousDropOff: gtfs.PickupDropOffPolicy_No,
	}
}

func noPickup(st network.StopTime) network.StopTime {
	st.PickupType = gtfs.PickupDropOffPolicy_No
	return st
}

func noDropOff(st network.StopTime) network.StopTime {
	st.DropOffType = gtfs.PickupDropOffPolicy_No
	return st
}

func withSequence(sts []network.StopTime) []network.StopTime {
	for i := range sts {
		sts[i].StopSequence = i + 1
	}
	return sts
}

func testTrip(id string) *network.Trip {
	return &network.Trip{ID: id, Route: testRoute, ServiceID: "daily"}
}

func dailyCalendar() network.Calendar {
	cal := network.Calendar{
		ServiceID: "daily",
		StartDate: testDate.Plus(-7),
		EndDate:   testDate.Plus(7),
	}
	for wd := range cal.Weekdays {
		cal.Weekdays[wd] = true
	}
	return cal
}

// fixture is a small network: two flex zones about 5.5 km apart, served by
// an unscheduled trip, with point stops inside and around them.
type fixture struct {
	snapshot *network.Snapshot
	trips    []*Trip
	index    *Index

	zoneA, zoneB        *network.StopLocation
	insideA, insideB    *network.StopLocation
	nearB, farFromB     *network.StopLocation
	unscheduled         *Trip
	unscheduledStopTime []network.StopTime
}

func newFixture() *fixture {
	f := &fixture{
		zoneA:    square("zoneA", 0, 0, 0.001),
		zoneB:    square("zoneB", 0, 0.05, 0.001),
		insideA:  point("insideA", 0.0005, 0.0005),
		insideB:  point("insideB", 0.0005, 0.0505),
		nearB:    point("nearB", 0.002, 0.05),
		farFromB: point("farFromB", 0.1, 0.05),
	}
	// board in zone A, alight in zone B
	f.unscheduledStopTime = withSequence([]network.StopTime{
		noDropOff(areaStop(f.zoneA, 0, 3600)),
		noPickup(areaStop(f.zoneB, 0, 3600)),
	})

	trip := testTrip("dar")
	f.snapshot = network.NewSnapshot(network.SnapshotInput{
		Timezone:  time.UTC,
		Routes:    []*network.Route{testRoute},
		Stops:     []*network.StopLocation{f.zoneA, f.zoneB, f.insideA, f.insideB, f.nearB, f.farFromB},
		Trips:     []*network.Trip{trip},
		StopTimes: map[string][]network.StopTime{trip.ID: f.unscheduledStopTime},
		Calendars: []network.Calendar{dailyCalendar()},
	})
	f.trips = BuildTrips(f.snapshot, nil, nil)
	f.unscheduled = f.trips[0]
	f.index = NewIndex(f.snapshot, f.trips)
	return f
}

// candidate walks from place to stop in arena and returns the street candidate.
func candidate(arena *street.Arena, place street.Place, stop *network.StopLocation, elapsed int) street.NearbyStop {
	origin := arena.Origin(place)
	reached := street.PlaceOf(stop)
	if stop.IsArea() && stop.CoversPoint(place.Lat, place.Lon) {
		reached = street.Place{Lat: place.Lat, Lon: place.Lon, Stop: stop}
	}
	state := arena.Append(street.Step{Kind: street.StepWalk, Back: origin, Place: reached, DurationSeconds: elapsed})
	return street.NearbyStop{Stop: stop, ElapsedSeconds: elapsed, State: state}
}

// fixedCalculator returns the same path for every request.
type fixedCalculator struct {
	duration int
}

func (c fixedCalculator) CalculateFlexPath(from, to street.Place, _, _ int) *street.FlexPath {
	return &street.FlexPath{
		DistanceMeters:  1000,
		DurationSeconds: c.duration,
		Geometry:        [][]float64{{from.Lat, from.Lon}, {to.Lat, to.Lon}},
	}
}

type noPathCalculator struct{}

func (noPathCalculator) CalculateFlexPath(_, _ street.Place, _, _ int) *street.FlexPath {
	return nil
}
