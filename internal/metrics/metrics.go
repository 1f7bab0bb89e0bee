// Package metrics provides Prometheus metrics for the flex engine.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid; every recording method is then a no-op.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Snapshot build metrics
	TripsClassified    *prometheus.CounterVec
	TripsRejected      *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
	FeedLoadsTotal     *prometheus.CounterVec

	// Snapshot size, sampled by the stats collector
	IndexTrips prometheus.Gauge
	IndexStops prometheus.Gauge
	IndexAreas prometheus.Gauge

	// HTTP metrics, recorded by the serve command
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Router metrics
	TemplatesGenerated  *prometheus.CounterVec
	TemplatesDuplicated *prometheus.CounterVec
	ItinerariesCreated  prometheus.Counter
	RouterDuration      *prometheus.HistogramVec

	// logger for error reporting
	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the stats collector goroutine
	cancel context.CancelFunc

	// wg tracks the stats collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// Stats is a point-in-time size of the loaded snapshot.
type Stats struct {
	Trips int
	Stops int
	Areas int
}

// StatsSource reports the size of whatever snapshot is currently loaded.
type StatsSource interface {
	FlexStats() Stats
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	tripsClassified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_trips_classified_total",
			Help: "Flex trips built from the network snapshot, by kind",
		},
		[]string{"kind"},
	)

	tripsRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_trips_rejected_total",
			Help: "Trips excluded from the flex index, by reason",
		},
		[]string{"reason"},
	)

	indexBuildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flex_index_build_duration_seconds",
		Help:    "Time spent building the flex index for a snapshot",
		Buckets: prometheus.DefBuckets,
	})

	feedLoadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_feed_loads_total",
			Help: "GTFS feed loads, by outcome",
		},
		[]string{"status"},
	)

	indexTrips := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flex_index_trips",
		Help: "Number of flex trips in the loaded index",
	})

	indexStops := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flex_index_stops",
		Help: "Number of stop locations in the loaded snapshot",
	})

	indexAreas := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flex_index_areas",
		Help: "Number of flex areas in the spatial index",
	})

	templatesGenerated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_templates_generated_total",
			Help: "Access and egress templates generated before deduplication",
		},
		[]string{"direction"},
	)

	templatesDuplicated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_templates_duplicated_total",
			Help: "Templates discarded as duplicates",
		},
		[]string{"direction"},
	)

	itinerariesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flex_direct_itineraries_total",
		Help: "Flex-only itineraries produced",
	})

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flex_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	routerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flex_router_duration_seconds",
			Help:    "Router operation latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Register all metrics with the custom registry
	registry.MustRegister(
		tripsClassified,
		tripsRejected,
		indexBuildDuration,
		feedLoadsTotal,
		indexTrips,
		indexStops,
		indexAreas,
		templatesGenerated,
		templatesDuplicated,
		itinerariesCreated,
		httpRequestsTotal,
		httpRequestDuration,
		routerDuration,
	)

	return &Metrics{
		Registry:            registry,
		TripsClassified:     tripsClassified,
		TripsRejected:       tripsRejected,
		IndexBuildDuration:  indexBuildDuration,
		FeedLoadsTotal:      feedLoadsTotal,
		IndexTrips:          indexTrips,
		IndexStops:          indexStops,
		IndexAreas:          indexAreas,
		TemplatesGenerated:  templatesGenerated,
		TemplatesDuplicated: templatesDuplicated,
		ItinerariesCreated:  itinerariesCreated,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		RouterDuration:      routerDuration,
		logger:              logger,
	}
}

func (m *Metrics) RecordTripClassified(kind string) {
	if m == nil {
		return
	}
	m.TripsClassified.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordTripRejected(reason string) {
	if m == nil {
		return
	}
	m.TripsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveIndexBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.IndexBuildDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordFeedLoad(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FeedLoadsTotal.WithLabelValues(status).Inc()
}

// RecordTemplates counts generated templates for a direction ("access" or
// "egress") and how many of them survived deduplication.
func (m *Metrics) RecordTemplates(direction string, generated, kept int) {
	if m == nil {
		return
	}
	m.TemplatesGenerated.WithLabelValues(direction).Add(float64(generated))
	if generated > kept {
		m.TemplatesDuplicated.WithLabelValues(direction).Add(float64(generated - kept))
	}
}

func (m *Metrics) RecordItineraries(n int) {
	if m == nil {
		return
	}
	m.ItinerariesCreated.Add(float64(n))
}

func (m *Metrics) ObserveRouter(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.RouterDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// StartStatsCollector starts a goroutine that periodically samples the size
// of the loaded snapshot and updates the corresponding gauges.
// The interval specifies how often to collect stats.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartStatsCollector(source StatsSource, interval time.Duration) {
	if m == nil || source == nil {
		return
	}

	// Prevent spawning multiple collectors
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in snapshot stats collector", "error", r)
				}
			}
		}()

		m.collect(source)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.collect(source)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Metrics) collect(source StatsSource) {
	stats := source.FlexStats()
	m.IndexTrips.Set(float64(stats.Trips))
	m.IndexStops.Set(float64(stats.Stops))
	m.IndexAreas.Set(float64(stats.Areas))
}

// Shutdown stops the stats collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m == nil {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
