package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/appconf"
	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/gtfs"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/metrics"
)

// nowEnvVar pins the planner's notion of "now" when set.
const nowEnvVar = "FLEXPLAN_NOW"

// loadConfig resolves the configuration from --config, then applies the
// global flag overrides.
func loadConfig(c *cli.Context) (appconf.Config, error) {
	cfg := appconf.Default()
	if path := c.String("config"); path != "" {
		loaded, err := appconf.LoadFromFile(path)
		if err != nil {
			return appconf.Config{}, err
		}
		cfg = *loaded
	}
	if url := c.String("gtfs"); url != "" {
		cfg.Gtfs.URL = url
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if cfg.Gtfs.URL == "" {
		return appconf.Config{}, errors.New("no GTFS feed configured: pass --gtfs or set gtfs.url in --config")
	}
	return cfg, nil
}

// BuildApplication loads the feed and wires the shared dependencies. Logs go
// to logOutput.
func BuildApplication(ctx context.Context, cfg appconf.Config, logOutput io.Writer) (*app.Application, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewStructuredLogger(logOutput, level)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewWithLogger(logger)
	}

	gtfsCfg := gtfs.NewConfig(cfg)
	manager, err := gtfs.InitGTFSManager(ctx, gtfsCfg, logger, m)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.StartStatsCollector(manager, cfg.Metrics.StatsInterval)
	}

	var clk clock.Clock = clock.RealClock{}
	if os.Getenv(nowEnvVar) != "" {
		clk = clock.NewEnvironmentClock(nowEnvVar, "", manager.Snapshot().Timezone())
	}

	return &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: manager,
		Clock:       clk,
		Metrics:     m,
	}, nil
}

// withApplication builds the application for one command run and tears it
// down afterwards, writing metrics when --metrics-file is set.
func withApplication(c *cli.Context, run func(*app.Application) error) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	application, err := BuildApplication(c.Context, cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	defer func() {
		application.GtfsManager.Shutdown()
		application.Metrics.Shutdown()
		if path := c.String("metrics-file"); path != "" && application.Metrics != nil {
			if writeErr := prometheus.WriteToTextfile(path, application.Metrics.Registry); writeErr != nil && err == nil {
				err = fmt.Errorf("failed to write metrics: %w", writeErr)
			}
		}
	}()

	c.Context = logging.WithLogger(c.Context, application.Logger)
	application.Logger.Debug("application ready", slog.String("gtfs", cfg.Gtfs.URL))
	return run(application)
}
