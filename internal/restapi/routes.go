package restapi

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flex.onebusaway.org/internal/appconf"
)

func registerPprofHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
}

// loadedFeed returns the GTFS manager, or nil when none is loaded.
func (api *RestAPI) loadedFeed() loadedFeed {
	if api.GtfsManager == nil {
		return nil
	}
	return api.GtfsManager
}

// SetRoutes registers the API endpoints. Cache lifetimes follow how often
// the answer can change: plans depend on the request time, trips only on
// the loaded feed.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	feed := api.loadedFeed()
	mux.Handle("GET /api/flex/plan.json", CacheControlMiddleware(0, http.HandlerFunc(api.planHandler)))
	mux.Handle("GET /api/flex/trips.json", FeedCacheControlMiddleware(5*time.Minute, feed, time.Now, http.HandlerFunc(api.tripsHandler)))
	mux.Handle("GET /api/flex/trip/{id}", FeedCacheControlMiddleware(5*time.Minute, feed, time.Now, http.HandlerFunc(api.tripHandler)))
	mux.Handle("GET /api/flex/current-time.json", CacheControlMiddleware(30*time.Second, http.HandlerFunc(api.currentTimeHandler)))
	mux.HandleFunc("GET /healthz", api.healthHandler)

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	if api.Config.Env != appconf.Production {
		registerPprofHandlers(mux)
	}
}

// Handler wraps mux in the request-id, logging, metrics and rate limiting
// middleware, outermost first.
func (api *RestAPI) Handler(mux http.Handler) http.Handler {
	handler := api.rateLimiter.Handler()(mux)
	handler = MetricsHandler(api.Metrics)(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return RequestIDMiddleware(handler)
}
