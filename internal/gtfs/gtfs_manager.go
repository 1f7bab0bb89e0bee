package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/metrics"
	"flex.onebusaway.org/internal/network"
)

// Manager owns the loaded network snapshot together with the flex trips and
// index built from it, and swaps all three atomically when the feed is
// reloaded.
type Manager struct {
	config      Config
	isLocalFile bool
	logger      *slog.Logger
	metrics     *metrics.Metrics

	staticMutex       sync.RWMutex // protects everything below up to isHealthy
	staticUpdateMutex sync.Mutex   // serializes ForceUpdate
	snapshot          *network.Snapshot
	trips             []*flex.Trip
	index             *flex.Index
	regionBounds      *RegionBounds
	lastUpdated       time.Time
	isHealthy         bool

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// InitGTFSManager loads the feed named by config and builds the flex index.
// Remote feeds are reloaded every RefreshInterval until Shutdown.
func InitGTFSManager(ctx context.Context, config Config, logger *slog.Logger, m *metrics.Metrics) (*Manager, error) {
	manager := &Manager{
		config:       config,
		isLocalFile:  config.isLocalFile(),
		logger:       logging.Component(logger, "gtfs_manager"),
		metrics:      m,
		shutdownChan: make(chan struct{}),
	}

	if err := manager.ForceUpdate(ctx); err != nil {
		return nil, fmt.Errorf("failed to load GTFS feed: %w", err)
	}

	if !manager.isLocalFile && config.RefreshInterval > 0 {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}

	return manager, nil
}

// Shutdown stops the periodic reload and waits for it to exit.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
	})
}

// Snapshot returns the currently loaded network.
func (manager *Manager) Snapshot() *network.Snapshot {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.snapshot
}

// Index returns the flex index of the currently loaded network.
func (manager *Manager) Index() *flex.Index {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.index
}

// Current returns the snapshot and the index built from it as one
// consistent pair, for callers that need both across a reload.
func (manager *Manager) Current() (*network.Snapshot, *flex.Index) {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.snapshot, manager.index
}

func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// NextRefresh is when the periodic reload is next due, or the zero time for
// feeds that are never reloaded.
func (manager *Manager) NextRefresh() time.Time {
	if manager.isLocalFile || manager.config.RefreshInterval <= 0 {
		return time.Time{}
	}
	return manager.LastUpdated().Add(manager.config.RefreshInterval)
}

// FlexStats reports the size of the loaded snapshot for the metrics collector.
func (manager *Manager) FlexStats() metrics.Stats {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	if manager.index == nil {
		return metrics.Stats{}
	}
	return metrics.Stats{
		Trips: len(manager.trips),
		Stops: manager.index.StopCount(),
		Areas: manager.index.AreaCount(),
	}
}

func (manager *Manager) IsHealthy() bool {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.isHealthy
}

func (manager *Manager) MarkHealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = true
}

func (manager *Manager) MarkUnhealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = false
}
