package gtfs

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// flexFeedFiles is a small GTFS-Flex feed: one area trip, one group trip and
// one fixed-route trip on a weekday calendar.
func flexFeedFiles() map[string]string {
	return map[string]string{
		"agency.txt": `agency_id,agency_name,agency_url,agency_timezone,agency_phone
a1,Dial A Ride,https://example.org,America/Los_Angeles,555-0100
`,
		"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
r1,a1,DAR,Dial A Ride,3
`,
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
s1,Main St,47.600,-122.330
s2,Pine St,47.610,-122.320
s3,Outside,47.700,-122.200
`,
		"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
wk,1,1,1,1,1,0,0,20240101,20241231
`,
		"calendar_dates.txt": `service_id,date,exception_type
wk,20240608,1
wk,20240612,2
`,
		"trips.txt": `route_id,service_id,trip_id,trip_headsign
r1,wk,t-area,Downtown
r1,wk,t-group,Shuttle
r1,wk,t-fixed,Fixed
`,
		"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,location_group_id,location_id,stop_sequence,start_pickup_drop_off_window,end_pickup_drop_off_window,pickup_type,drop_off_type,pickup_booking_rule_id,drop_off_booking_rule_id,mean_duration_factor,mean_duration_offset,safe_duration_factor,safe_duration_offset
t-area,,,,,zone1,2,08:00:00,18:00:00,1,2,,br1,1.5,60,2.0,120
t-area,,,,,zone1,1,08:00:00,18:00:00,2,1,br1,,,,,
t-area,,,,,nowhere,3,08:00:00,18:00:00,,,,,,,,
t-group,,,,grp1,,1,06:00:00,25:30:00,,,,,,,,
t-group,,,,grp1,,2,06:00:00,25:30:00,,,,,,,,
t-fixed,08:00:00,08:00:00,s1,,,1,,,,,,,,,,
t-fixed,08:30:00,08:30:00,s2,,,2,,,,,,,,,,
ghost,,,,,zone1,1,08:00:00,09:00:00,,,,,,,,
`,
		"locations.geojson": `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "zone1",
      "properties": {"stop_name": "Downtown Zone"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-122.34, 47.59], [-122.31, 47.59], [-122.31, 47.62], [-122.34, 47.62], [-122.34, 47.59]]]
      }
    },
    {
      "type": "Feature",
      "id": 42,
      "properties": {},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[-122.0, 47.0], [-121.9, 47.0], [-121.9, 47.1], [-122.0, 47.0]]],
          [[[-121.5, 47.5], [-121.4, 47.5], [-121.4, 47.6], [-121.5, 47.5]]]
        ]
      }
    }
  ]
}
`,
		"location_groups.txt": `location_group_id,location_group_name
grp1,Two Stops
grp-empty,Nothing
`,
		"location_group_stops.txt": `location_group_id,stop_id
grp1,s1
grp1,s2
grp-empty,zone1
`,
		"booking_rules.txt": "\ufeff" + `booking_rule_id,booking_type,prior_notice_duration_min,message,phone_number
br1,1,30,Call ahead,555-0101
`,
	}
}

func zipFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// writeFeed zips files into a temporary directory and returns the path.
func writeFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flex.zip")
	require.NoError(t, os.WriteFile(path, zipFeed(t, files), 0o600))
	return path
}
