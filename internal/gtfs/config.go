package gtfs

import (
	"strings"
	"time"

	"flex.onebusaway.org/internal/appconf"
)

// Config holds GTFS configuration for the manager.
type Config struct {
	GtfsURL               string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
	// RefreshInterval is how often a remote feed is reloaded. Zero disables
	// periodic reloads.
	RefreshInterval time.Duration
	Env             appconf.Environment
	Verbose         bool
}

// NewConfig picks the GTFS settings out of the application configuration.
func NewConfig(cfg appconf.Config) Config {
	return Config{
		GtfsURL:               cfg.Gtfs.URL,
		StaticAuthHeaderKey:   cfg.Gtfs.StaticAuthHeaderKey,
		StaticAuthHeaderValue: cfg.Gtfs.StaticAuthHeaderValue,
		RefreshInterval:       cfg.Gtfs.RefreshInterval,
		Env:                   cfg.Env,
		Verbose:               cfg.Verbose,
	}
}

func (config Config) isLocalFile() bool {
	return !strings.HasPrefix(config.GtfsURL, "http://") && !strings.HasPrefix(config.GtfsURL, "https://")
}
