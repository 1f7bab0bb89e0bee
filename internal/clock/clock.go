// Package clock abstracts the time source so that searches default to "now"
// in production and to a fixed instant in tests and replays.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
	NowUnixMilli() int64
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// MockClock is a thread-safe, manually driven clock for tests.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MockClock) NowUnixMilli() int64 {
	return m.Now().UnixMilli()
}

// Set changes the current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// EnvironmentClock pins "now" for replaying a search: it reads the time from
// an environment variable, then from a file, then falls back to system time.
// Sources are re-read on every call.
type EnvironmentClock struct {
	envVar   string
	filePath string
	location *time.Location
}

// NewEnvironmentClock builds a clock over the given sources. Times without a
// zone are interpreted in location; with a nil location only RFC 3339 parses.
func NewEnvironmentClock(envVar, filePath string, location *time.Location) *EnvironmentClock {
	return &EnvironmentClock{envVar: envVar, filePath: filePath, location: location}
}

func (e *EnvironmentClock) Now() time.Time {
	if t, err := e.fromEnv(); err == nil {
		return t
	}
	if t, err := e.fromFile(); err == nil {
		return t
	}
	slog.Warn("EnvironmentClock: no usable time source, falling back to system time",
		slog.String("envVar", e.envVar), slog.String("filePath", e.filePath))
	return time.Now()
}

func (e *EnvironmentClock) NowUnixMilli() int64 {
	return e.Now().UnixMilli()
}

func (e *EnvironmentClock) fromEnv() (time.Time, error) {
	if e.envVar == "" {
		return time.Time{}, errors.New("environment variable name not configured")
	}
	value := os.Getenv(e.envVar)
	if value == "" {
		return time.Time{}, fmt.Errorf("environment variable %s is empty", e.envVar)
	}
	return e.parse(value)
}

func (e *EnvironmentClock) fromFile() (time.Time, error) {
	if e.filePath == "" {
		return time.Time{}, errors.New("file path not configured")
	}
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return time.Time{}, err
	}
	return e.parse(string(data))
}

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (e *EnvironmentClock) parse(s string) (time.Time, error) {
	return ParseTime(s, e.location)
}

// ParseTime accepts RFC 3339, or a local date-time or date in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		return time.Time{}, errors.New("timezone not configured")
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC3339, YYYY-MM-DD HH:MM:SS, YYYY-MM-DDTHH:MM:SS, or YYYY-MM-DD", s)
}
