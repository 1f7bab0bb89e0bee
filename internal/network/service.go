package network

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// ServiceDate is a calendar date in the feed's local time.
type ServiceDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewServiceDate returns the calendar date of t in t's own location.
func NewServiceDate(t time.Time) ServiceDate {
	y, m, d := t.Date()
	return ServiceDate{Year: y, Month: m, Day: d}
}

// ParseServiceDate parses a GTFS YYYYMMDD date.
func ParseServiceDate(s string) (ServiceDate, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return ServiceDate{}, fmt.Errorf("invalid service date %q: %w", s, err)
	}
	return NewServiceDate(t), nil
}

// Plus returns the date shifted by the given number of days.
func (d ServiceDate) Plus(days int) ServiceDate {
	return NewServiceDate(time.Date(d.Year, d.Month, d.Day+days, 12, 0, 0, 0, time.UTC))
}

// Midnight returns the start of the date in loc.
func (d ServiceDate) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly earlier than other.
func (d ServiceDate) Before(other ServiceDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d ServiceDate) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// ServiceCodeSet is the set of service codes running on one date.
type ServiceCodeSet struct {
	codes map[int]struct{}
}

func NewServiceCodeSet(codes ...int) *ServiceCodeSet {
	set := &ServiceCodeSet{codes: make(map[int]struct{}, len(codes))}
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

func (s *ServiceCodeSet) Add(code int) {
	s.codes[code] = struct{}{}
}

func (s *ServiceCodeSet) Contains(code int) bool {
	if s == nil {
		return false
	}
	_, ok := s.codes[code]
	return ok
}

func (s *ServiceCodeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.codes)
}

// Codes returns the codes in ascending order.
func (s *ServiceCodeSet) Codes() []int {
	if s == nil {
		return nil
	}
	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Calendar is the service pattern of one service id, combining calendar.txt
// and calendar_dates.txt.
type Calendar struct {
	ServiceID    string
	Weekdays     [7]bool // indexed by time.Weekday
	StartDate    ServiceDate
	EndDate      ServiceDate
	AddedDates   []ServiceDate
	RemovedDates []ServiceDate
}

// ActiveDates lists every date on which the calendar runs, in order.
func (c Calendar) ActiveDates() []ServiceDate {
	removed := make(map[ServiceDate]struct{}, len(c.RemovedDates))
	for _, d := range c.RemovedDates {
		removed[d] = struct{}{}
	}
	active := make(map[ServiceDate]struct{})
	for d := c.StartDate; !c.EndDate.Before(d); d = d.Plus(1) {
		weekday := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
		if !c.Weekdays[weekday] {
			continue
		}
		if _, skip := removed[d]; skip {
			continue
		}
		active[d] = struct{}{}
	}
	for _, d := range c.AddedDates {
		if _, skip := removed[d]; !skip {
			active[d] = struct{}{}
		}
	}

	dates := make([]ServiceDate, 0, len(active))
	for d := range active {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b ServiceDate) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return dates
}
