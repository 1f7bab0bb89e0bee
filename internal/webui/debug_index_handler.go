package webui

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"

	"flex.onebusaway.org/internal/appconf"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/models"
	"flex.onebusaway.org/internal/network"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dataTypes = []string{"index", "trips", "stops", "areas", "region"}

type debugData struct {
	Title     string
	Pre       string
	DataTypes []string
}

func writeDebugData(w http.ResponseWriter, r *http.Request, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title:     title,
		Pre:       spew.Sdump(data),
		DataTypes: dataTypes,
	})
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to execute debug template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// indexSummary is the debug view of the loaded network.
type indexSummary struct {
	Source      string
	LastUpdated string
	Healthy     bool
	Trips       int
	Stops       int
	Areas       int
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	if webUI.GtfsManager == nil {
		http.Error(w, "Service Unavailable: no GTFS network loaded", http.StatusServiceUnavailable)
		return
	}

	snapshot, index := webUI.GtfsManager.Current()
	if snapshot == nil || index == nil {
		http.Error(w, "Service Unavailable: no GTFS network loaded", http.StatusServiceUnavailable)
		return
	}

	var data any
	var title string

	switch r.URL.Query().Get("dataType") {
	case "index":
		stats := webUI.GtfsManager.FlexStats()
		data = indexSummary{
			Source:      webUI.GtfsConfig.GtfsURL,
			LastUpdated: webUI.GtfsManager.LastUpdated().Format(time.RFC3339),
			Healthy:     webUI.GtfsManager.IsHealthy(),
			Trips:       stats.Trips,
			Stops:       stats.Stops,
			Areas:       stats.Areas,
		}
		title = "Flex Index - Summary"
	case "trips":
		trips := index.Trips()
		list := make([]models.TripModel, 0, len(trips))
		for _, trip := range trips {
			list = append(list, models.NewTripModel(trip))
		}
		data = list
		title = "Flex Index - Trips"
	case "stops":
		data = snapshot.Stops()
		title = "GTFS Static - Stop Locations"
	case "areas":
		data = snapshot.StopsOfKind(network.StopKindArea)
		title = "GTFS Static - Flex Areas"
	case "region":
		data = webUI.GtfsManager.RegionBounds()
		title = "Flex Index - Region Bounds"
	default:
		data = map[string]string{
			"error": "Please use one of the following: index, trips, stops, areas, region.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, r, title, data)
}
