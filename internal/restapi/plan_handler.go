package restapi

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/models"
)

// planQuery holds the raw query parameters of a plan request.
type planQuery struct {
	FromLat    string `query:"fromLat" validate:"required,latitude"`
	FromLon    string `query:"fromLon" validate:"required,longitude"`
	ToLat      string `query:"toLat" validate:"required,latitude"`
	ToLon      string `query:"toLon" validate:"required,longitude"`
	Time       string `query:"time"`
	ArriveBy   string `query:"arriveBy" validate:"omitempty,boolean"`
	Connectors string `query:"connectors" validate:"omitempty,boolean"`
}

var queryValidator = newQueryValidator()

func newQueryValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("query")
	})
	return v
}

// validate returns the failing checks keyed by query parameter name.
func (q planQuery) validate() map[string][]string {
	err := queryValidator.Struct(q)
	if err == nil {
		return nil
	}
	fieldErrors := make(map[string][]string)
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		for _, fe := range invalid {
			fieldErrors[fe.Field()] = append(fieldErrors[fe.Field()], "failed "+fe.Tag())
		}
		return fieldErrors
	}
	fieldErrors["query"] = []string{err.Error()}
	return fieldErrors
}

func parsePlanQuery(r *http.Request) planQuery {
	query := r.URL.Query()
	return planQuery{
		FromLat:    query.Get("fromLat"),
		FromLon:    query.Get("fromLon"),
		ToLat:      query.Get("toLat"),
		ToLon:      query.Get("toLon"),
		Time:       query.Get("time"),
		ArriveBy:   query.Get("arriveBy"),
		Connectors: query.Get("connectors"),
	}
}

// parseFlag reads a value already checked by the boolean validator.
func parseFlag(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func parseCoordinate(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (api *RestAPI) planHandler(w http.ResponseWriter, r *http.Request) {
	if api.GtfsManager == nil || !api.GtfsManager.IsHealthy() {
		api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
		return
	}

	query := parsePlanQuery(r)
	if fieldErrors := query.validate(); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	req := app.PlanRequest{
		FromLat:  parseCoordinate(query.FromLat),
		FromLon:  parseCoordinate(query.FromLon),
		ToLat:    parseCoordinate(query.ToLat),
		ToLon:    parseCoordinate(query.ToLon),
		ArriveBy: parseFlag(query.ArriveBy),
	}
	if query.Time != "" {
		t, err := clock.ParseTime(query.Time, api.GtfsManager.Snapshot().Timezone())
		if err != nil {
			api.validationErrorResponse(w, r, map[string][]string{"time": {err.Error()}})
			return
		}
		req.Time = t
	}

	result, err := api.Plan(r.Context(), req)
	if errors.Is(err, app.ErrNoNetwork) {
		api.sendError(w, r, http.StatusServiceUnavailable, "GTFS data unavailable")
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	plan := models.NewPlanModel(result.RequestID, result.SearchTime, result.Itineraries,
		result.Accesses, result.Egresses, parseFlag(query.Connectors))
	api.sendResponse(w, r, models.NewOKResponse(models.EntryData{Entry: plan}, api.Clock))
}
