package flex

import (
	"math"
	"strings"

	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
	"flex.onebusaway.org/internal/utils"
)

// TransferOptions bounds the walk between a flex area and the point stops a
// connector may hand over to.
type TransferOptions struct {
	MaxTransferMeters        float64
	WalkSpeedMetersPerSecond float64
}

// DefaultTransferOptions walks at most 300 m at 1.33 m/s.
func DefaultTransferOptions() TransferOptions {
	return TransferOptions{MaxTransferMeters: 300, WalkSpeedMetersPerSecond: 1.33}
}

// template is what access and egress templates have in common: the street
// candidate, the trip and its boarding and alighting indices, the stop where
// the flex leg meets the rest of the journey, and the service date.
type template struct {
	Candidate    street.NearbyStop
	Trip         *Trip
	FromIndex    int
	ToIndex      int
	TransferStop *network.StopLocation
	Date         ServiceDate

	calculator street.PathCalculator
}

// TemplateKey is the value identity of a template.
type TemplateKey struct {
	CandidateStopID        string
	TripID                 string
	FromIndex              int
	ToIndex                int
	TransferStopID         string
	SecondsFromStartOfTime int
	StopTimeIndex          int
}

// Compare orders keys field by field.
func (k TemplateKey) Compare(other TemplateKey) int {
	if c := strings.Compare(k.TripID, other.TripID); c != 0 {
		return c
	}
	if k.SecondsFromStartOfTime != other.SecondsFromStartOfTime {
		return compareInts(k.SecondsFromStartOfTime, other.SecondsFromStartOfTime)
	}
	if c := strings.Compare(k.CandidateStopID, other.CandidateStopID); c != 0 {
		return c
	}
	if k.FromIndex != other.FromIndex {
		return compareInts(k.FromIndex, other.FromIndex)
	}
	if k.ToIndex != other.ToIndex {
		return compareInts(k.ToIndex, other.ToIndex)
	}
	if c := strings.Compare(k.TransferStopID, other.TransferStopID); c != 0 {
		return c
	}
	return compareInts(k.StopTimeIndex, other.StopTimeIndex)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t *template) key(stopTimeIndex int) TemplateKey {
	return TemplateKey{
		CandidateStopID:        t.Candidate.Stop.ID,
		TripID:                 t.Trip.ID(),
		FromIndex:              t.FromIndex,
		ToIndex:                t.ToIndex,
		TransferStopID:         t.TransferStop.ID,
		SecondsFromStartOfTime: t.Date.SecondsFromStartOfTime,
		StopTimeIndex:          stopTimeIndex,
	}
}

// candidatePlace is where the walk to or from the candidate meets the flex leg.
func (t *template) candidatePlace(arena *street.Arena) street.Place {
	if t.Candidate.State == street.NoState {
		return street.PlaceOf(t.Candidate.Stop)
	}
	return arena.Step(t.Candidate.State).Place
}

// candidateState is the state the flex step links back to. A candidate
// that carries no arena state gets an origin and a walk of its elapsed time,
// so the chain always accounts for the street part of the connector.
func (t *template) candidateState(arena *street.Arena) street.StateID {
	if t.Candidate.State != street.NoState {
		return t.Candidate.State
	}
	place := street.PlaceOf(t.Candidate.Stop)
	return arena.Append(street.Step{
		Kind:            street.StepWalk,
		Back:            arena.Origin(place),
		Place:           place,
		DurationSeconds: t.Candidate.ElapsedSeconds,
	})
}

// transferTarget is one stop a connector can reach from the transfer stop:
// either the stop itself or a point stop near a flex area.
type transferTarget struct {
	stop        *network.StopLocation
	flexPlace   street.Place
	walkMeters  float64
	walkSeconds int
}

// transferTargets resolves the transfer stop. A point stop is its own target.
// An area hands over to the point stops inside it, where the vehicle stops
// at the stop itself, and to the point stops within walking distance of its
// centroid, which are reached by a transfer walk from the centroid.
func (t *template) transferTargets(idx *Index, opts TransferOptions) []transferTarget {
	stop := t.TransferStop
	if !stop.IsArea() {
		return []transferTarget{{stop: stop, flexPlace: street.PlaceOf(stop)}}
	}

	var targets []transferTarget
	inside := make(map[string]struct{})
	for _, point := range idx.PointStopsWithin(stop) {
		inside[point.ID] = struct{}{}
		targets = append(targets, transferTarget{stop: point, flexPlace: street.PlaceOf(point)})
	}
	if opts.MaxTransferMeters <= 0 {
		return targets
	}
	centroid := street.Place{Lat: stop.Lat, Lon: stop.Lon, Stop: stop}
	for _, point := range idx.PointStopsNear(stop.Lat, stop.Lon, opts.MaxTransferMeters) {
		if _, ok := inside[point.ID]; ok {
			continue
		}
		distance := utils.Distance(stop.Lat, stop.Lon, point.Lat, point.Lon)
		seconds := 0
		if opts.WalkSpeedMetersPerSecond > 0 {
			seconds = int(math.Round(distance / opts.WalkSpeedMetersPerSecond))
		}
		targets = append(targets, transferTarget{
			stop:        point,
			flexPlace:   centroid,
			walkMeters:  distance,
			walkSeconds: seconds,
		})
	}
	return targets
}

// AccessTemplate boards a flex trip from a street candidate near the origin.
type AccessTemplate struct {
	template
}

func (t *AccessTemplate) Key() TemplateKey {
	return t.key(t.FromIndex)
}

// CreateAccessEgress builds the connectors that hand this access over to the
// fixed-route search, one per reachable transfer stop. It records the flex
// and transfer steps in arena.
func (t *AccessTemplate) CreateAccessEgress(idx *Index, arena *street.Arena, opts TransferOptions) []*AccessEgress {
	from := t.candidatePlace(arena)
	pre := t.Candidate.ElapsedSeconds
	back := t.candidateState(arena)

	var connectors []*AccessEgress
	paths := make(map[street.Place]*street.FlexPath)
	for _, target := range t.transferTargets(idx, opts) {
		path, ok := paths[target.flexPlace]
		if !ok {
			path = t.calculator.CalculateFlexPath(from, target.flexPlace, t.FromIndex, t.ToIndex)
			paths[target.flexPlace] = path
		}
		if path == nil {
			continue
		}

		state := arena.Append(street.Step{
			Kind:            street.StepFlex,
			Back:            back,
			Place:           target.flexPlace,
			DurationSeconds: path.DurationSeconds,
			DistanceMeters:  path.DistanceMeters,
			FlexPath:        path,
			TripID:          t.Trip.ID(),
			FromIndex:       t.FromIndex,
			ToIndex:         t.ToIndex,
		})
		direct := target.flexPlace.Stop == target.stop
		if !direct {
			state = arena.Append(street.Step{
				Kind:            street.StepTransfer,
				Back:            state,
				Place:           street.PlaceOf(target.stop),
				DurationSeconds: target.walkSeconds,
				DistanceMeters:  target.walkMeters,
			})
		}

		final := arena.Elapsed(state)
		flex := path.DurationSeconds
		connectors = append(connectors, &AccessEgress{
			Stop:                   target.stop,
			Times:                  [3]int{pre, flex, final - pre - flex},
			FromIndex:              t.FromIndex,
			ToIndex:                t.ToIndex,
			StopTimeIndex:          t.FromIndex,
			SecondsFromStartOfTime: t.Date.SecondsFromStartOfTime,
			Trip:                   t.Trip,
			State:                  state,
			DirectToStop:           direct,
			arena:                  arena,
		})
	}
	return connectors
}

// EgressTemplate alights from a flex trip onto a street candidate near the
// destination.
type EgressTemplate struct {
	template

	// StopTimeIndex is the stop-time index downstream lookups should use:
	// the boarding index in EgressModeRaptor, the alighting index in
	// EgressModeDirect.
	StopTimeIndex int
}

func (t *EgressTemplate) Key() TemplateKey {
	return t.key(t.StopTimeIndex)
}

// AccessEgressStop is the stop of the street candidate this egress serves.
func (t *EgressTemplate) AccessEgressStop() *network.StopLocation {
	return t.Candidate.Stop
}

// CreateAccessEgress builds the connectors through which the fixed-route
// search can reach this egress, one per transfer stop the flex trip can be
// boarded from. The arena chain runs backward from the destination.
func (t *EgressTemplate) CreateAccessEgress(idx *Index, arena *street.Arena, opts TransferOptions) []*AccessEgress {
	to := t.candidatePlace(arena)
	post := t.Candidate.ElapsedSeconds
	back := t.candidateState(arena)

	var connectors []*AccessEgress
	paths := make(map[street.Place]*street.FlexPath)
	for _, target := range t.transferTargets(idx, opts) {
		path, ok := paths[target.flexPlace]
		if !ok {
			path = t.calculator.CalculateFlexPath(target.flexPlace, to, t.FromIndex, t.ToIndex)
			paths[target.flexPlace] = path
		}
		if path == nil {
			continue
		}

		state := arena.Append(street.Step{
			Kind:            street.StepFlex,
			Back:            back,
			Place:           target.flexPlace,
			DurationSeconds: path.DurationSeconds,
			DistanceMeters:  path.DistanceMeters,
			FlexPath:        path,
			TripID:          t.Trip.ID(),
			FromIndex:       t.FromIndex,
			ToIndex:         t.ToIndex,
		})
		direct := target.flexPlace.Stop == target.stop
		if !direct {
			state = arena.Append(street.Step{
				Kind:            street.StepTransfer,
				Back:            state,
				Place:           street.PlaceOf(target.stop),
				DurationSeconds: target.walkSeconds,
				DistanceMeters:  target.walkMeters,
			})
		}

		final := arena.Elapsed(state)
		flex := path.DurationSeconds
		connectors = append(connectors, &AccessEgress{
			Stop:                   target.stop,
			Times:                  [3]int{final - post - flex, flex, post},
			FromIndex:              t.FromIndex,
			ToIndex:                t.ToIndex,
			StopTimeIndex:          t.StopTimeIndex,
			SecondsFromStartOfTime: t.Date.SecondsFromStartOfTime,
			Trip:                   t.Trip,
			State:                  state,
			DirectToStop:           direct,
			arena:                  arena,
		})
	}
	return connectors
}
