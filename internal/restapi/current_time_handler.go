package restapi

import (
	"net/http"

	"flex.onebusaway.org/internal/models"
)

// currentTimeHandler reports the planner's notion of now, which is pinned
// when the application runs on an environment clock.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	if api.GtfsManager == nil || !api.GtfsManager.IsHealthy() {
		api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
		return
	}

	timeData := models.NewCurrentTimeData(api.Clock.Now())
	api.sendResponse(w, r, models.NewOKResponse(timeData, api.Clock))
}
