package flex

import (
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
)

type LegMode string

const (
	LegModeWalk LegMode = "WALK"
	LegModeFlex LegMode = "FLEX"
)

// LegPlace is a leg endpoint.
type LegPlace struct {
	Name   string
	StopID string
	Lat    float64
	Lon    float64
}

func legPlace(p street.Place, fallback string) LegPlace {
	place := LegPlace{Name: fallback, Lat: p.Lat, Lon: p.Lon}
	if p.Stop != nil {
		place.Name = p.Stop.Name
		place.StopID = p.Stop.ID
	}
	return place
}

type Leg struct {
	Mode           LegMode
	From           LegPlace
	To             LegPlace
	StartTime      time.Time
	EndTime        time.Time
	DistanceMeters float64
	Geometry       string // encoded polyline

	// Set on flex legs only.
	TripID             string
	RouteID            string
	ServiceDate        network.ServiceDate
	FromStopIndex      int
	ToStopIndex        int
	PickupBookingInfo  *network.BookingInfo
	DropOffBookingInfo *network.BookingInfo
}

func (l Leg) DurationSeconds() int {
	return int(l.EndTime.Sub(l.StartTime) / time.Second)
}

// Itinerary is a complete flex-only journey: an optional walk, the flex leg,
// an optional walk.
type Itinerary struct {
	Legs []Leg
}

func (it *Itinerary) StartTime() time.Time {
	return it.Legs[0].StartTime
}

func (it *Itinerary) EndTime() time.Time {
	return it.Legs[len(it.Legs)-1].EndTime
}

func (it *Itinerary) DurationSeconds() int {
	return int(it.EndTime().Sub(it.StartTime()) / time.Second)
}

// FlexLeg returns the single flex leg.
func (it *Itinerary) FlexLeg() Leg {
	for _, leg := range it.Legs {
		if leg.Mode == LegModeFlex {
			return leg
		}
	}
	return Leg{}
}

// Key identifies an itinerary by its legs and timing.
func (it *Itinerary) Key() string {
	var b strings.Builder
	for i, leg := range it.Legs {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%s:%s:%s>%s:%d-%d", leg.Mode, leg.TripID, leg.From.StopID, leg.To.StopID,
			leg.StartTime.Unix(), leg.EndTime.Unix())
		if leg.Mode == LegModeFlex {
			fmt.Fprintf(&b, ":%d-%d", leg.FromStopIndex, leg.ToStopIndex)
		}
	}
	return b.String()
}

func straightLine(from, to street.Place) string {
	return string(polyline.EncodeCoords([][]float64{{from.Lat, from.Lon}, {to.Lat, to.Lon}}))
}

// CreateDirectItinerary joins this access to the walk of an egress candidate
// at the transfer stop, producing a journey with no fixed-route leg. The flex
// leg is timed against the trip's own windows: arriving by departureTime when
// arriveBy is set, else leaving no earlier than it. All times are seconds
// from startOfTime. It returns nil when the timing does not close or no
// street path exists.
func (t *AccessTemplate) CreateDirectItinerary(egress street.NearbyStop, arriveBy bool, departureTime int, startOfTime time.Time, arena *street.Arena) *Itinerary {
	if egress.Stop == nil || egress.Stop.ID != t.TransferStop.ID {
		return nil
	}

	boardPlace := t.candidatePlace(arena)
	alightPlace := street.PlaceOf(egress.Stop)
	if egress.State != street.NoState {
		alightPlace = arena.Step(egress.State).Place
	}

	path := t.calculator.CalculateFlexPath(boardPlace, alightPlace, t.FromIndex, t.ToIndex)
	if path == nil {
		return nil
	}

	pre, flex, post := t.Candidate.ElapsedSeconds, path.DurationSeconds, egress.ElapsedSeconds
	sfs := t.Date.SecondsFromStartOfTime

	var shift int
	if arriveBy {
		lat := t.Trip.LatestArrivalTime(departureTime-post-sfs, t.FromIndex, t.ToIndex, flex)
		if lat == Infeasible {
			return nil
		}
		shift = sfs + lat - flex - pre
	} else {
		edt := t.Trip.EarliestDepartureTime(departureTime+pre-sfs, t.FromIndex, t.ToIndex, flex)
		if edt == Infeasible {
			return nil
		}
		shift = sfs + edt - pre
	}

	start := startOfTime.Add(time.Duration(shift) * time.Second)
	boardTime := start.Add(time.Duration(pre) * time.Second)
	alightTime := boardTime.Add(time.Duration(flex) * time.Second)
	end := alightTime.Add(time.Duration(post) * time.Second)

	var legs []Leg
	if pre > 0 || t.Candidate.DistanceMeters > 0 {
		origin := boardPlace
		if t.Candidate.State != street.NoState {
			origin = arena.Chain(t.Candidate.State)[0].Place
		}
		legs = append(legs, Leg{
			Mode:           LegModeWalk,
			From:           legPlace(origin, "Origin"),
			To:             legPlace(boardPlace, ""),
			StartTime:      start,
			EndTime:        boardTime,
			DistanceMeters: t.Candidate.DistanceMeters,
			Geometry:       straightLine(origin, boardPlace),
		})
	}

	trip := t.Trip.Trip()
	routeID := ""
	if trip.Route != nil {
		routeID = trip.Route.ID
	}
	legs = append(legs, Leg{
		Mode:               LegModeFlex,
		From:               legPlace(boardPlace, ""),
		To:                 legPlace(alightPlace, ""),
		StartTime:          boardTime,
		EndTime:            alightTime,
		DistanceMeters:     path.DistanceMeters,
		Geometry:           path.EncodedGeometry(),
		TripID:             trip.ID,
		RouteID:            routeID,
		ServiceDate:        t.Date.Date,
		FromStopIndex:      t.FromIndex,
		ToStopIndex:        t.ToIndex,
		PickupBookingInfo:  t.Trip.PickupBookingInfo(t.FromIndex),
		DropOffBookingInfo: t.Trip.DropOffBookingInfo(t.ToIndex),
	})

	if post > 0 || egress.DistanceMeters > 0 {
		destination := alightPlace
		if egress.State != street.NoState {
			destination = arena.Chain(egress.State)[0].Place
		}
		legs = append(legs, Leg{
			Mode:           LegModeWalk,
			From:           legPlace(alightPlace, ""),
			To:             legPlace(destination, "Destination"),
			StartTime:      alightTime,
			EndTime:        end,
			DistanceMeters: egress.DistanceMeters,
			Geometry:       straightLine(alightPlace, destination),
		})
	}

	return &Itinerary{Legs: legs}
}
