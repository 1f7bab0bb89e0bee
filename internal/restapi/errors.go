package restapi

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"

	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/models"
)

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "internal server error", err)
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse reports every invalid query parameter at once.
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	messages := make([]string, 0, len(fieldErrors))
	for _, field := range slices.Sorted(maps.Keys(fieldErrors)) {
		messages = append(messages, field+": "+strings.Join(fieldErrors[field], ", "))
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	response := models.NewErrorResponse(http.StatusBadRequest, strings.Join(messages, "; "), api.Clock)
	response.Data = map[string]any{"fieldErrors": fieldErrors}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode validation error", err)
	}
}
