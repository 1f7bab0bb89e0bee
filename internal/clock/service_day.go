package clock

import "time"

// ServiceDayStart returns the reference instant GTFS stop times on the given
// date count from: noon minus twelve hours. It differs from midnight on days
// when daylight saving time changes.
func ServiceDayStart(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, loc).Add(-12 * time.Hour)
}

// StartOfServiceDay is ServiceDayStart for the local calendar date of t.
func StartOfServiceDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return ServiceDayStart(y, m, d, loc)
}

// SecondsSince returns whole seconds from start to t.
func SecondsSince(start, t time.Time) int {
	return int(t.Sub(start) / time.Second)
}
