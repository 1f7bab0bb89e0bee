// Package street models the street-side collaborators of the flex engine:
// the back-linked path states produced by a walking search, the candidates
// that search hands over, and the calculators that estimate in-vehicle paths.
package street

import (
	"sync"

	"flex.onebusaway.org/internal/network"
)

// StateID is a handle into an Arena. NoState marks the absence of a state.
type StateID int

const NoState StateID = -1

type StepKind int

const (
	StepOrigin StepKind = iota
	StepWalk
	StepFlex
	StepTransfer
)

func (k StepKind) String() string {
	switch k {
	case StepOrigin:
		return "ORIGIN"
	case StepWalk:
		return "WALK"
	case StepFlex:
		return "FLEX"
	case StepTransfer:
		return "TRANSFER"
	}
	return "UNKNOWN"
}

// Step is one traversal in a path. Elapsed and distance totals are cumulative
// along the back chain; Duration and Distance belong to this step alone.
type Step struct {
	Kind StepKind
	Back StateID

	Place Place

	DurationSeconds int
	DistanceMeters  float64
	ElapsedSeconds  int

	// Set on StepFlex only.
	FlexPath  *FlexPath
	TripID    string
	FromIndex int
	ToIndex   int
}

// Arena is an append-only store of path steps shared by one search request.
// Appends and reads are safe from multiple goroutines.
type Arena struct {
	mu    sync.RWMutex
	steps []Step
}

func NewArena() *Arena {
	return &Arena{}
}

// Origin starts a new chain at place.
func (a *Arena) Origin(place Place) StateID {
	return a.Append(Step{Kind: StepOrigin, Back: NoState, Place: place})
}

// Append stores step, computing its cumulative elapsed time from step.Back.
func (a *Arena) Append(step Step) StateID {
	a.mu.Lock()
	defer a.mu.Unlock()

	step.ElapsedSeconds = step.DurationSeconds
	if step.Back != NoState {
		step.ElapsedSeconds += a.steps[step.Back].ElapsedSeconds
	}
	a.steps = append(a.steps, step)
	return StateID(len(a.steps) - 1)
}

// Step returns a copy of the step behind id.
func (a *Arena) Step(id StateID) Step {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.steps[id]
}

// Elapsed returns the cumulative seconds at id, or 0 for NoState.
func (a *Arena) Elapsed(id StateID) int {
	if id == NoState {
		return 0
	}
	return a.Step(id).ElapsedSeconds
}

// FindLast walks the back chain from id and returns the first step of kind.
func (a *Arena) FindLast(id StateID, kind StepKind) (Step, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for cur := id; cur != NoState; cur = a.steps[cur].Back {
		if a.steps[cur].Kind == kind {
			return a.steps[cur], true
		}
	}
	return Step{}, false
}

// Chain returns the steps from the origin to id, in travel order.
func (a *Arena) Chain(id StateID) []Step {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var chain []Step
	for cur := id; cur != NoState; cur = a.steps[cur].Back {
		chain = append(chain, a.steps[cur])
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.steps)
}

// Place is a point on the street network, optionally at a stop location.
type Place struct {
	Lat  float64
	Lon  float64
	Stop *network.StopLocation
}

// PlaceOf returns the place of a stop location at its coordinate.
func PlaceOf(stop *network.StopLocation) Place {
	return Place{Lat: stop.Lat, Lon: stop.Lon, Stop: stop}
}
