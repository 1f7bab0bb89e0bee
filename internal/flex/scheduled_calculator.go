package flex

import "flex.onebusaway.org/internal/street"

// ScheduledCalculator keeps the geometry of its delegate's path but replaces
// the duration with the scheduled time between the two stop-time indices.
type ScheduledCalculator struct {
	Delegate street.PathCalculator
	Trip     *Trip
}

func (c *ScheduledCalculator) CalculateFlexPath(from, to street.Place, fromIndex, toIndex int) *street.FlexPath {
	path := c.Delegate.CalculateFlexPath(from, to, fromIndex, toIndex)
	if path == nil {
		return nil
	}
	duration, ok := scheduledDuration(c.Trip, fromIndex, toIndex)
	if !ok {
		return nil
	}
	scheduled := *path
	scheduled.DurationSeconds = duration
	return &scheduled
}
