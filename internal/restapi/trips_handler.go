package restapi

import (
	"errors"
	"net/http"

	"flex.onebusaway.org/internal/models"
	"flex.onebusaway.org/internal/network"
)

// tripsHandler lists the indexed flex trips, optionally filtered by kind.
func (api *RestAPI) tripsHandler(w http.ResponseWriter, r *http.Request) {
	if api.GtfsManager == nil || api.GtfsManager.Index() == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != "scheduled_deviated" && kind != "unscheduled" {
		api.validationErrorResponse(w, r, map[string][]string{"kind": {"expected scheduled_deviated or unscheduled"}})
		return
	}

	trips := api.GtfsManager.Index().Trips()
	list := make([]models.TripModel, 0, len(trips))
	for _, trip := range trips {
		if kind != "" && trip.Kind().String() != kind {
			continue
		}
		list = append(list, models.NewTripModel(trip))
	}
	api.sendResponse(w, r, models.NewOKResponse(models.ListData{List: list}, api.Clock))
}

func (api *RestAPI) tripHandler(w http.ResponseWriter, r *http.Request) {
	if api.GtfsManager == nil || api.GtfsManager.Index() == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
		return
	}
	index := api.GtfsManager.Index()

	trip, err := index.Trip(r.PathValue("id"))
	if errors.Is(err, network.ErrNotFound) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewOKResponse(models.EntryData{Entry: models.NewTripModel(trip)}, api.Clock))
}
