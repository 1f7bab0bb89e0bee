package flex

import (
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/pool"

	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/metrics"
	"flex.onebusaway.org/internal/network"
	"flex.onebusaway.org/internal/street"
)

// RouterParams configures one search.
type RouterParams struct {
	Snapshot *network.Snapshot
	Index    *Index
	Arena    *street.Arena

	SearchTime                 time.Time
	ArriveBy                   bool
	AdditionalPastSearchDays   int
	AdditionalFutureSearchDays int

	AccessCandidates []street.NearbyStop
	EgressCandidates []street.NearbyStop

	AccessCalculator street.PathCalculator
	EgressCalculator street.PathCalculator
	EgressMode       EgressMode
	Transfer         TransferOptions

	// MaxGoroutines bounds template generation; zero means GOMAXPROCS.
	MaxGoroutines int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Router answers one flex search. Its derived results are computed on first
// use and cached. The first call to each accessor must not race with another
// first call to the same accessor.
type Router struct {
	params    RouterParams
	logger    *slog.Logger
	requestID string

	startOfTime   time.Time
	departureTime int
	dates         []ServiceDate

	accessOnce      sync.Once
	accessTemplates []*AccessTemplate

	egressOnce      sync.Once
	egressTemplates []*EgressTemplate
}

// NewRouter resolves the search window: the service-day start of the search
// date is the time origin, and every date from AdditionalPastSearchDays
// before to AdditionalFutureSearchDays after the search date is searched.
func NewRouter(params RouterParams) (*Router, error) {
	if params.Snapshot == nil || params.Index == nil {
		return nil, errors.New("flex router needs a snapshot and an index")
	}
	if params.Arena == nil {
		params.Arena = street.NewArena()
	}
	if params.AccessCalculator == nil {
		params.AccessCalculator = street.NewStreetCalculator(false)
	}
	if params.EgressCalculator == nil {
		params.EgressCalculator = street.NewStreetCalculator(true)
	}
	if params.MaxGoroutines <= 0 {
		params.MaxGoroutines = runtime.GOMAXPROCS(0)
	}
	if params.AdditionalPastSearchDays < 0 || params.AdditionalFutureSearchDays < 0 {
		return nil, errors.New("additional search days must not be negative")
	}

	requestID := uuid.NewString()
	r := &Router{
		params:    params,
		requestID: requestID,
		logger: logging.Component(params.Logger, "flex_router").
			With(slog.String("request_id", requestID)),
	}

	tz := params.Snapshot.Timezone()
	local := params.SearchTime.In(tz)
	r.startOfTime = clock.StartOfServiceDay(local, tz)
	r.departureTime = clock.SecondsSince(r.startOfTime, params.SearchTime)

	searchDate := network.NewServiceDate(local)
	for d := -params.AdditionalPastSearchDays; d <= params.AdditionalFutureSearchDays; d++ {
		date := searchDate.Plus(d)
		start := clock.ServiceDayStart(date.Year, date.Month, date.Day, tz)
		r.dates = append(r.dates, ServiceDate{
			Date:                   date,
			SecondsFromStartOfTime: clock.SecondsSince(r.startOfTime, start),
			ServicesRunning:        params.Snapshot.ServiceCodesRunning(date),
		})
	}

	return r, nil
}

func (r *Router) RequestID() string {
	return r.requestID
}

// StartOfTime is the service-day start of the search date.
func (r *Router) StartOfTime() time.Time {
	return r.startOfTime
}

// DepartureTime is the search instant in seconds from StartOfTime.
func (r *Router) DepartureTime() int {
	return r.departureTime
}

// Dates returns the searched service dates, earliest first.
func (r *Router) Dates() []ServiceDate {
	return r.dates
}

type candidatePair struct {
	candidate street.NearbyStop
	trip      *Trip
}

// candidatePairs pairs every candidate with the trips that can board
// (access) or alight (egress) at its stop, keeping per trip only the
// candidate with the least walking. Ties go to the earlier candidate.
func (r *Router) candidatePairs(candidates []street.NearbyStop, access bool) []candidatePair {
	idx := r.params.Index
	mapper := iter.Mapper[street.NearbyStop, []candidatePair]{MaxGoroutines: r.params.MaxGoroutines}
	perCandidate := mapper.Map(candidates, func(candidate *street.NearbyStop) []candidatePair {
		var pairs []candidatePair
		for _, trip := range idx.TripsByStop(candidate.Stop.ID) {
			if access && !idx.IsPickupStop(trip.ID(), candidate.Stop.ID) {
				continue
			}
			if !access && !idx.IsDropOffStop(trip.ID(), candidate.Stop.ID) {
				continue
			}
			pairs = append(pairs, candidatePair{candidate: *candidate, trip: trip})
		}
		return pairs
	})

	best := make(map[string]int)
	var reduced []candidatePair
	for _, pairs := range perCandidate {
		for _, pair := range pairs {
			i, ok := best[pair.trip.ID()]
			if !ok {
				best[pair.trip.ID()] = len(reduced)
				reduced = append(reduced, pair)
				continue
			}
			if pair.candidate.ElapsedSeconds < reduced[i].candidate.ElapsedSeconds {
				reduced[i] = pair
			}
		}
	}
	return reduced
}

type templateJob struct {
	candidatePair
	date ServiceDate
}

// runningJobs crosses the pairs with the dates their trip runs on.
func (r *Router) runningJobs(pairs []candidatePair) []templateJob {
	var jobs []templateJob
	for _, pair := range pairs {
		for _, date := range r.dates {
			if date.IsTripRunning(pair.trip, r.params.Snapshot) {
				jobs = append(jobs, templateJob{candidatePair: pair, date: date})
			}
		}
	}
	return jobs
}

// AccessTemplates returns the deduplicated access templates, ordered by key.
func (r *Router) AccessTemplates() []*AccessTemplate {
	r.accessOnce.Do(func() {
		start := time.Now()
		jobs := r.runningJobs(r.candidatePairs(r.params.AccessCandidates, true))

		var set ConcurrentSet[TemplateKey, *AccessTemplate]
		var generated atomic.Int64
		p := pool.New().WithMaxGoroutines(r.params.MaxGoroutines)
		for _, job := range jobs {
			p.Go(func() {
				for _, t := range job.trip.AccessTemplates(job.candidate, job.date, r.params.AccessCalculator) {
					generated.Add(1)
					set.Add(t.Key(), t)
				}
			})
		}
		p.Wait()

		templates := set.Values()
		sort.Slice(templates, func(i, j int) bool {
			return templates[i].Key().Compare(templates[j].Key()) < 0
		})
		r.accessTemplates = templates

		r.params.Metrics.RecordTemplates("access", int(generated.Load()), len(templates))
		r.params.Metrics.ObserveRouter("access_templates", time.Since(start))
		logging.LogOperation(r.logger, "access_templates_generated",
			slog.Int("jobs", len(jobs)),
			slog.Int64("generated", generated.Load()),
			slog.Int("templates", len(templates)),
			slog.Duration("duration", time.Since(start)))
	})
	return r.accessTemplates
}

// EgressTemplates returns the deduplicated egress templates, ordered by key.
func (r *Router) EgressTemplates() []*EgressTemplate {
	r.egressOnce.Do(func() {
		start := time.Now()
		jobs := r.runningJobs(r.candidatePairs(r.params.EgressCandidates, false))

		var set ConcurrentSet[TemplateKey, *EgressTemplate]
		var generated atomic.Int64
		p := pool.New().WithMaxGoroutines(r.params.MaxGoroutines)
		for _, job := range jobs {
			p.Go(func() {
				for _, t := range job.trip.EgressTemplates(job.candidate, job.date, r.params.EgressCalculator, r.params.EgressMode) {
					generated.Add(1)
					set.Add(t.Key(), t)
				}
			})
		}
		p.Wait()

		templates := set.Values()
		sort.Slice(templates, func(i, j int) bool {
			return templates[i].Key().Compare(templates[j].Key()) < 0
		})
		r.egressTemplates = templates

		r.params.Metrics.RecordTemplates("egress", int(generated.Load()), len(templates))
		r.params.Metrics.ObserveRouter("egress_templates", time.Since(start))
		logging.LogOperation(r.logger, "egress_templates_generated",
			slog.Int("jobs", len(jobs)),
			slog.Int64("generated", generated.Load()),
			slog.Int("templates", len(templates)),
			slog.Duration("duration", time.Since(start)))
	})
	return r.egressTemplates
}

// CreateFlexAccesses returns the connectors the fixed-route search can start from.
func (r *Router) CreateFlexAccesses() []*AccessEgress {
	var connectors []*AccessEgress
	for _, t := range r.AccessTemplates() {
		connectors = append(connectors, t.CreateAccessEgress(r.params.Index, r.params.Arena, r.params.Transfer)...)
	}
	return connectors
}

// CreateFlexEgresses returns the connectors the fixed-route search can end with.
func (r *Router) CreateFlexEgresses() []*AccessEgress {
	var connectors []*AccessEgress
	for _, t := range r.EgressTemplates() {
		connectors = append(connectors, t.CreateAccessEgress(r.params.Index, r.params.Arena, r.params.Transfer)...)
	}
	return connectors
}

// CreateFlexOnlyItineraries joins access templates to the egress walks at
// their transfer stop. Only stops that some egress template alights at are
// considered. Itineraries are deduplicated and ordered by start time.
func (r *Router) CreateFlexOnlyItineraries() []*Itinerary {
	start := time.Now()

	egressStops := make(map[string]struct{})
	for _, t := range r.EgressTemplates() {
		egressStops[t.AccessEgressStop().ID] = struct{}{}
	}
	egressByStop := make(map[string][]street.NearbyStop)
	for _, candidate := range r.params.EgressCandidates {
		egressByStop[candidate.Stop.ID] = append(egressByStop[candidate.Stop.ID], candidate)
	}

	var set ConcurrentSet[string, *Itinerary]
	for _, t := range r.AccessTemplates() {
		if _, ok := egressStops[t.TransferStop.ID]; !ok {
			continue
		}
		for _, egress := range egressByStop[t.TransferStop.ID] {
			itinerary := t.CreateDirectItinerary(egress, r.params.ArriveBy, r.departureTime, r.startOfTime, r.params.Arena)
			if itinerary == nil {
				continue
			}
			set.Add(itinerary.Key(), itinerary)
		}
	}

	itineraries := set.Values()
	sort.Slice(itineraries, func(i, j int) bool {
		a, b := itineraries[i], itineraries[j]
		if !a.StartTime().Equal(b.StartTime()) {
			return a.StartTime().Before(b.StartTime())
		}
		return a.Key() < b.Key()
	})

	r.params.Metrics.RecordItineraries(len(itineraries))
	r.params.Metrics.ObserveRouter("direct_itineraries", time.Since(start))
	logging.LogOperation(r.logger, "flex_only_itineraries_created",
		slog.Int("itineraries", len(itineraries)),
		slog.Duration("duration", time.Since(start)))
	return itineraries
}
