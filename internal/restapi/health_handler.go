package restapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	FeedAgeSecs int64  `json:"feedAgeSeconds,omitempty"`
}

func writeHealth(w http.ResponseWriter, code int, response HealthResponse) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}

// healthHandler reports readiness: 503 until a network is loaded, and 503
// again once the loaded feed is older than the configured stale threshold.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.GtfsManager == nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "GTFS manager not initialized",
		})
		return
	}

	if !api.GtfsManager.IsHealthy() {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "starting",
			Detail: "GTFS feed is being loaded and indexed",
		})
		return
	}

	// Feed age is wall-clock time; api.Clock may be pinned for replays.
	lastUpdated := api.GtfsManager.LastUpdated()
	now := time.Now()
	age := int64(api.staleDetector.Age(lastUpdated, now) / time.Second)
	if api.staleDetector.Check(lastUpdated, now) {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status:      "stale",
			Detail:      "GTFS feed has not been refreshed",
			FeedAgeSecs: age,
		})
		return
	}

	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok", FeedAgeSecs: age})
}
