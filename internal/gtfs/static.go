package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/logging"
)

const maxStaticSize = 200 * 1024 * 1024

func rawGtfsData(ctx context.Context, config Config, logger *slog.Logger) ([]byte, error) {
	if config.isLocalFile() {
		b, err := os.ReadFile(config.GtfsURL)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.GtfsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS request: %w", err)
	}

	// Add auth header if provided
	if config.StaticAuthHeaderKey != "" && config.StaticAuthHeaderValue != "" {
		req.Header.Set(config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download GTFS data: received HTTP status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	if int64(len(b)) > maxStaticSize {
		return nil, fmt.Errorf("static GTFS response exceeds size limit of %d bytes", maxStaticSize)
	}
	return b, nil
}

// updateStaticGTFS reloads a remote feed every RefreshInterval.
func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	logger := logging.Component(manager.logger, "gtfs_static_updater")

	ticker := time.NewTicker(manager.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			err := manager.ForceUpdate(ctx)
			cancel()

			if err != nil {
				logging.LogError(logger, "Error updating GTFS data", err,
					slog.String("source", manager.config.GtfsURL))
				continue
			}

		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_gtfs_updates")
			return
		}
	}
}

// ForceUpdate reloads the feed and rebuilds the flex trips and index, then
// swaps them in under the write lock. Readers keep the previous snapshot
// until the swap; on any failure before it the previous snapshot stays.
func (manager *Manager) ForceUpdate(ctx context.Context) (err error) {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	defer func() { manager.metrics.RecordFeedLoad(err) }()

	logger := logging.Component(manager.logger, "gtfs_updater")

	data, err := rawGtfsData(ctx, manager.config, logger)
	if err != nil {
		logging.LogError(logger, "Error updating GTFS data", err,
			slog.String("source", manager.config.GtfsURL))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := LoadSnapshot(data, manager.logger)
	if err != nil {
		logging.LogError(logger, "Error parsing GTFS data", err,
			slog.String("source", manager.config.GtfsURL))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	trips := flex.BuildTrips(snapshot, manager.logger, manager.metrics)
	index := flex.NewIndex(snapshot, trips)
	manager.metrics.ObserveIndexBuild(time.Since(start))

	if err := ctx.Err(); err != nil {
		return err
	}

	bounds := ComputeRegionBounds(snapshot.Stops())

	manager.staticMutex.Lock()
	manager.snapshot = snapshot
	manager.trips = trips
	manager.index = index
	manager.regionBounds = bounds
	manager.lastUpdated = time.Now()
	manager.isHealthy = true
	manager.staticMutex.Unlock()

	logging.LogOperation(logger, "gtfs_static_data_updated_hot_swap",
		slog.String("source", manager.config.GtfsURL),
		slog.Int("flex_trips", len(trips)),
		slog.Int("areas", index.AreaCount()),
		slog.Duration("index_build_duration", time.Since(start)))

	return nil
}
