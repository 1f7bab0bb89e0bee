package app

import (
	"log/slog"

	"flex.onebusaway.org/internal/appconf"
	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/gtfs"
	"flex.onebusaway.org/internal/metrics"
)

// Application holds the dependencies shared by the CLI commands: the
// resolved configuration, the logger, the feed manager and the clock used
// when a search does not name its own time.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Clock       clock.Clock
	Metrics     *metrics.Metrics
}
