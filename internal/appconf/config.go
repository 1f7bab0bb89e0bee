// Package appconf loads the flex planner configuration from a YAML (or JSON)
// file and turns it into the settings each component takes.
package appconf

import (
	"time"

	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/street"
)

// Config is the resolved configuration. Zero values are replaced by defaults
// when loaded through LoadFromFile.
type Config struct {
	Env      Environment
	LogLevel string
	Verbose  bool

	Gtfs    GtfsConfig
	Router  RouterConfig
	Metrics MetricsConfig
	Server  ServerConfig
}

type GtfsConfig struct {
	// URL is either an http(s) URL or a path to a local zip.
	URL                   string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
	RefreshInterval       time.Duration
}

type RouterConfig struct {
	AdditionalPastSearchDays   int
	AdditionalFutureSearchDays int

	MaxTransferMeters        float64
	WalkSpeedMetersPerSecond float64
	MaxAccessWalkMeters      float64

	// In-vehicle estimate. PathCalculator selects PathCalculatorDirect, one
	// straight-line estimate for both directions, or PathCalculatorStreet,
	// the directional pair bounded by MaxFlexMeters.
	PathCalculator       string
	DetourFactor         float64
	SpeedMetersPerSecond float64
	ExtraTimeSeconds     int
	MaxFlexMeters        float64

	// Parallelism bounds template generation; zero means GOMAXPROCS.
	Parallelism int
	EgressMode  flex.EgressMode
}

const (
	PathCalculatorDirect = "direct"
	PathCalculatorStreet = "street"
)

type MetricsConfig struct {
	Enabled       bool
	StatsInterval time.Duration
}

// ServerConfig configures the HTTP API of the serve command.
type ServerConfig struct {
	Port int
	// RateLimit is the number of requests each client may make per second;
	// zero rejects every request from a client not in ExemptClients.
	RateLimit     int
	ExemptClients []string
	// StaleAfter marks the health check stale once the loaded feed is older
	// than this. Zero disables the check.
	StaleAfter time.Duration
}

// Default returns the configuration used when a file leaves a value unset.
func Default() Config {
	transfer := flex.DefaultTransferOptions()
	walk := street.DefaultWalkOptions()
	calc := street.NewDirectCalculator()
	streets := street.NewStreetCalculator(false)
	return Config{
		Env:      Development,
		LogLevel: "info",
		Gtfs: GtfsConfig{
			RefreshInterval: 24 * time.Hour,
		},
		Router: RouterConfig{
			AdditionalPastSearchDays:   1,
			AdditionalFutureSearchDays: 1,
			MaxTransferMeters:          transfer.MaxTransferMeters,
			WalkSpeedMetersPerSecond:   transfer.WalkSpeedMetersPerSecond,
			MaxAccessWalkMeters:        walk.MaxDistanceMeters,
			PathCalculator:             PathCalculatorDirect,
			DetourFactor:               calc.DetourFactor,
			SpeedMetersPerSecond:       calc.SpeedMetersPerSecond,
			ExtraTimeSeconds:           calc.ExtraTimeSeconds,
			MaxFlexMeters:              streets.MaxDistanceMeters,
			EgressMode:                 flex.EgressModeRaptor,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			StatsInterval: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:      4000,
			RateLimit: 100,
		},
	}
}

func (c RouterConfig) TransferOptions() flex.TransferOptions {
	return flex.TransferOptions{
		MaxTransferMeters:        c.MaxTransferMeters,
		WalkSpeedMetersPerSecond: c.WalkSpeedMetersPerSecond,
	}
}

func (c RouterConfig) WalkOptions() street.WalkOptions {
	return street.WalkOptions{
		SpeedMetersPerSecond: c.WalkSpeedMetersPerSecond,
		MaxDistanceMeters:    c.MaxAccessWalkMeters,
	}
}

func (c RouterConfig) Calculator() street.DirectCalculator {
	return street.DirectCalculator{
		DetourFactor:         c.DetourFactor,
		SpeedMetersPerSecond: c.SpeedMetersPerSecond,
		ExtraTimeSeconds:     c.ExtraTimeSeconds,
	}
}

// Calculators returns the access and egress path calculators. The street
// pair searches away from the flex area on access and toward it on egress.
func (c RouterConfig) Calculators() (access, egress street.PathCalculator) {
	if c.PathCalculator != PathCalculatorStreet {
		calc := c.Calculator()
		return calc, calc
	}
	directional := func(reverse bool) street.StreetCalculator {
		return street.StreetCalculator{
			Reverse:              reverse,
			DetourFactor:         c.DetourFactor,
			SpeedMetersPerSecond: c.SpeedMetersPerSecond,
			MaxDistanceMeters:    c.MaxFlexMeters,
		}
	}
	return directional(false), directional(true)
}
