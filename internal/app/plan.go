package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/street"
)

// PlanRequest is one flex search between two coordinates.
type PlanRequest struct {
	FromLat, FromLon float64
	ToLat, ToLon     float64
	// Time is the departure time, or the arrival time when ArriveBy is set.
	// The zero time means now.
	Time     time.Time
	ArriveBy bool
}

// PlanResult carries the direct flex itineraries of a search together with
// the access and egress connectors a fixed-route search would start and end
// with.
type PlanResult struct {
	RequestID   string
	SearchTime  time.Time
	Itineraries []*flex.Itinerary
	Accesses    []*flex.AccessEgress
	Egresses    []*flex.AccessEgress
}

var ErrNoNetwork = errors.New("no GTFS network loaded")

// Plan walks from both ends to nearby stops and areas, then runs the flex
// router against the currently loaded network. It logs through the context's
// logger when one is set, so HTTP requests keep their request id.
func (app *Application) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if app.GtfsManager == nil {
		return nil, ErrNoNetwork
	}
	snapshot, index := app.GtfsManager.Current()
	if snapshot == nil || index == nil {
		return nil, ErrNoNetwork
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchTime := req.Time
	if searchTime.IsZero() {
		searchTime = app.Clock.Now()
	}

	logger := logging.FromContextOr(ctx, app.Logger)
	cfg := app.Config.Router
	arena := street.NewArena()
	walk := cfg.WalkOptions()
	stops := snapshot.Stops()
	access := street.FindNearbyStops(arena, street.Place{Lat: req.FromLat, Lon: req.FromLon}, stops, walk)
	egress := street.FindNearbyStops(arena, street.Place{Lat: req.ToLat, Lon: req.ToLon}, stops, walk)

	accessCalculator, egressCalculator := cfg.Calculators()
	router, err := flex.NewRouter(flex.RouterParams{
		Snapshot:                   snapshot,
		Index:                      index,
		Arena:                      arena,
		SearchTime:                 searchTime,
		ArriveBy:                   req.ArriveBy,
		AdditionalPastSearchDays:   cfg.AdditionalPastSearchDays,
		AdditionalFutureSearchDays: cfg.AdditionalFutureSearchDays,
		AccessCandidates:           access,
		EgressCandidates:           egress,
		AccessCalculator:           accessCalculator,
		EgressCalculator:           egressCalculator,
		EgressMode:                 cfg.EgressMode,
		Transfer:                   cfg.TransferOptions(),
		MaxGoroutines:              cfg.Parallelism,
		Logger:                     logger,
		Metrics:                    app.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create flex router: %w", err)
	}

	result := &PlanResult{
		RequestID:   router.RequestID(),
		SearchTime:  searchTime,
		Itineraries: router.CreateFlexOnlyItineraries(),
		Accesses:    router.CreateFlexAccesses(),
		Egresses:    router.CreateFlexEgresses(),
	}

	logging.LogOperation(logging.Component(logger, "planner"), "plan_completed",
		slog.String("request_id", result.RequestID),
		slog.Int("access_candidates", len(access)),
		slog.Int("egress_candidates", len(egress)),
		slog.Int("itineraries", len(result.Itineraries)))
	return result, nil
}
