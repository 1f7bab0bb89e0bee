// Package restapi serves flex trip planning over HTTP.
package restapi

import (
	"time"

	"flex.onebusaway.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter   *RateLimitMiddleware
	staleDetector *StaleDetector
}

// NewRestAPI creates a new RestAPI instance with a per-client rate limiter.
// Call Shutdown to stop the limiter's cleanup goroutine.
func NewRestAPI(app *app.Application) *RestAPI {
	server := app.Config.Server
	return &RestAPI{
		Application:   app,
		rateLimiter:   NewRateLimitMiddleware(server.RateLimit, time.Second, server.ExemptClients, app.Clock),
		staleDetector: NewStaleDetector().WithThreshold(server.StaleAfter),
	}
}

func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
