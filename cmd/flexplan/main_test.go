package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoFeed = filepath.Join("..", "..", "testdata", "flex-demo.zip")

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	if _, err := os.Stat(demoFeed); os.IsNotExist(err) {
		t.Skip("Test data not available, skipping test")
	}

	var out, logs bytes.Buffer
	cliApp := newCLI()
	cliApp.Writer = &out
	cliApp.ErrWriter = &logs
	err := cliApp.Run(append([]string{"flexplan"}, args...))
	return out.String(), logs.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, logs, err := runCLI(t, "--gtfs", demoFeed, "plan",
		"--from-lat", "47.600", "--from-lon", "-122.330",
		"--to-lat", "47.615", "--to-lon", "-122.315",
		"--time", "2024-06-10 10:00:00",
		"--connectors")
	require.NoError(t, err)

	assert.Contains(t, out, "request ")
	assert.Contains(t, out, "itinerary 1:")
	assert.Contains(t, out, "trip t-area route r1")
	assert.Contains(t, out, "book: Call ahead (555-0101)")
	assert.Contains(t, out, "access connectors:")
	assert.Contains(t, logs, `"msg":"plan_completed"`)
}

func TestPlanCommand_InvalidTime(t *testing.T) {
	_, _, err := runCLI(t, "--gtfs", demoFeed, "plan",
		"--from-lat", "47.6", "--from-lon", "-122.33",
		"--to-lat", "47.61", "--to-lon", "-122.32",
		"--time", "tomorrow-ish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --time")
}

func TestPlanCommand_NoFeedConfigured(t *testing.T) {
	t.Setenv("FLEXPLAN_GTFS", "")
	t.Setenv("FLEXPLAN_CONFIG", "")
	_, _, err := runCLI(t, "plan",
		"--from-lat", "47.6", "--from-lon", "-122.33",
		"--to-lat", "47.61", "--to-lon", "-122.32")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no GTFS feed configured")
}

func TestPlanCommand_UsesPinnedClock(t *testing.T) {
	t.Setenv(nowEnvVar, "2024-06-10T10:00:00-07:00")
	out, _, err := runCLI(t, "--gtfs", demoFeed, "plan",
		"--from-lat", "47.600", "--from-lon", "-122.330",
		"--to-lat", "47.615", "--to-lon", "-122.315")
	require.NoError(t, err)
	assert.Contains(t, out, "at 2024-06-10T10:00:00-07:00")
}

func TestDumpCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "Trips",
			args:     []string{"--what", "trips"},
			contains: []string{`"t-area"`, `"t-group"`, `"unscheduled"`, `"grp1"`},
		},
		{
			name:     "Index",
			args:     []string{"--what", "index"},
			contains: []string{"Trips: (int) 2", "Stops: (int) 3", "Areas: (int) 1", "flex-demo.zip"},
		},
		{
			name:     "Dates",
			args:     []string{"--what", "dates", "--date", "2024-06-10"},
			contains: []string{"20240609", "20240610", "20240611", "SecondsFromStartOfTime: (int) 86400"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--gtfs", demoFeed, "dump"}, tc.args...)
			out, _, err := runCLI(t, args...)
			require.NoError(t, err)
			for _, want := range tc.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestDumpCommand_UnknownTarget(t *testing.T) {
	_, _, err := runCLI(t, "--gtfs", demoFeed, "dump", "--what", "shapes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown --what "shapes"`)
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flexplan.prom")
	_, _, err := runCLI(t, "--gtfs", demoFeed, "--metrics-file", path, "dump")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `flex_feed_loads_total{status="success"} 1`)
	assert.Contains(t, string(content), `flex_trips_classified_total{kind="unscheduled"} 2`)
}

func TestConfigFile(t *testing.T) {
	if _, err := os.Stat(demoFeed); os.IsNotExist(err) {
		t.Skip("Test data not available, skipping test")
	}
	feed, err := filepath.Abs(demoFeed)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flexplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: test
log-level: debug
gtfs:
  url: `+feed+`
router:
  additional-past-search-days: 0
  additional-future-search-days: 0
`), 0o600))

	out, logs, err := runCLI(t, "--config", path, "dump", "--what", "dates", "--date", "2024-06-10")
	require.NoError(t, err)
	assert.Contains(t, out, "20240610")
	assert.NotContains(t, out, "20240611")
	assert.Contains(t, logs, `"msg":"application ready"`, "debug logging from the config file")

	_, _, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat config file")
}
