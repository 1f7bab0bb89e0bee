package restapi

import (
	"time"
)

// StaleDetector decides whether the loaded feed is too old to serve from.
// A zero threshold never reports stale.
type StaleDetector struct {
	threshold time.Duration
}

func NewStaleDetector() *StaleDetector {
	return &StaleDetector{}
}

func (d *StaleDetector) WithThreshold(threshold time.Duration) *StaleDetector {
	d.threshold = threshold
	return d
}

func (d *StaleDetector) Check(lastUpdated, currentTime time.Time) bool {
	if d.threshold <= 0 {
		return false
	}
	if lastUpdated.IsZero() {
		return true
	}
	return d.Age(lastUpdated, currentTime) > d.threshold
}

func (d *StaleDetector) Age(lastUpdated, currentTime time.Time) time.Duration {
	if lastUpdated.IsZero() {
		return d.threshold + 1
	}
	return currentTime.Sub(lastUpdated)
}
