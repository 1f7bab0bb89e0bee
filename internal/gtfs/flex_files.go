package gtfs

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zip"
	geojson "github.com/paulmach/go.geojson"

	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/network"
)

// The base parser drops stop times without a stop_id or without times, which
// is every flex row, so stop_times.txt is read again with the flex columns.
type stopTimeRow struct {
	TripID          string `csv:"trip_id"`
	StopID          string `csv:"stop_id"`
	LocationID      string `csv:"location_id"`
	LocationGroupID string `csv:"location_group_id"`
	StopSequence    string `csv:"stop_sequence"`

	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	WindowStart   string `csv:"start_pickup_drop_off_window"`
	WindowEnd     string `csv:"end_pickup_drop_off_window"`

	PickupType        string `csv:"pickup_type"`
	DropOffType       string `csv:"drop_off_type"`
	ContinuousPickup  string `csv:"continuous_pickup"`
	ContinuousDropOff string `csv:"continuous_drop_off"`

	MeanDurationFactor string `csv:"mean_duration_factor"`
	MeanDurationOffset string `csv:"mean_duration_offset"`
	SafeDurationFactor string `csv:"safe_duration_factor"`
	SafeDurationOffset string `csv:"safe_duration_offset"`

	PickupBookingRuleID  string `csv:"pickup_booking_rule_id"`
	DropOffBookingRuleID string `csv:"drop_off_booking_rule_id"`
}

type locationGroupRow struct {
	ID   string `csv:"location_group_id"`
	Name string `csv:"location_group_name"`
}

type locationGroupStopRow struct {
	GroupID string `csv:"location_group_id"`
	StopID  string `csv:"stop_id"`
}

type bookingRuleRow struct {
	ID                     string `csv:"booking_rule_id"`
	Type                   string `csv:"booking_type"`
	PriorNoticeDurationMin string `csv:"prior_notice_duration_min"`
	Message                string `csv:"message"`
	PhoneNumber            string `csv:"phone_number"`
	InfoURL                string `csv:"info_url"`
	BookingURL             string `csv:"booking_url"`
}

// feedFiles gives by-name access to the files of a feed zip.
type feedFiles map[string]*zip.File

func openFeed(data []byte) (feedFiles, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening GTFS zip: %w", err)
	}
	files := make(feedFiles, len(archive.File))
	for _, f := range archive.File {
		files[f.Name] = f
	}
	return files, nil
}

func (files feedFiles) read(name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, nil
	}
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", name, err)
	}
	defer logging.SafeCloseWithLogging(r, slog.Default().With(slog.String("component", "gtfs_loader")), name)
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return b, nil
}

// readCSV decodes an optional CSV file into out. A missing file leaves out
// untouched.
func (files feedFiles) readCSV(name string, out any) error {
	b, err := files.read(name)
	if err != nil || b == nil {
		return err
	}
	in := bufio.NewReader(bytes.NewReader(b))
	if bom, _ := in.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = in.Discard(3)
	}
	reader := csv.NewReader(in)
	// tolerate rows with missing trailing columns
	reader.FieldsPerRecord = -1
	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("failed to parse %q: %w", name, err)
	}
	return nil
}

// readAreas decodes locations.geojson. Each Polygon or MultiPolygon feature
// becomes one area; only outer rings are kept.
func (files feedFiles) readAreas() ([]*network.StopLocation, error) {
	b, err := files.read("locations.geojson")
	if err != nil || b == nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", "locations.geojson", err)
	}

	var areas []*network.StopLocation
	for i, feature := range fc.Features {
		id := featureID(feature)
		if id == "" || feature.Geometry == nil {
			return nil, fmt.Errorf("locations.geojson feature %d has no id or geometry", i)
		}

		var rings [][][2]float64
		switch {
		case feature.Geometry.IsPolygon():
			rings = append(rings, outerRing(feature.Geometry.Polygon))
		case feature.Geometry.IsMultiPolygon():
			for _, polygon := range feature.Geometry.MultiPolygon {
				rings = append(rings, outerRing(polygon))
			}
		default:
			return nil, fmt.Errorf("location %q: unsupported geometry %s", id, feature.Geometry.Type)
		}

		name := id
		if n, err := feature.PropertyString("stop_name"); err == nil && n != "" {
			name = n
		}
		areas = append(areas, network.NewArea(id, name, rings))
	}
	return areas, nil
}

func featureID(feature *geojson.Feature) string {
	switch id := feature.ID.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		if s, err := feature.PropertyString("id"); err == nil {
			return s
		}
	}
	return ""
}

// outerRing converts GeoJSON [lon, lat] positions to [lat, lon] pairs.
func outerRing(polygon [][][]float64) [][2]float64 {
	if len(polygon) == 0 {
		return nil
	}
	ring := make([][2]float64, 0, len(polygon[0]))
	for _, position := range polygon[0] {
		if len(position) < 2 {
			continue
		}
		ring = append(ring, [2]float64{position[1], position[0]})
	}
	return ring
}

func bookingInfos(rows []bookingRuleRow) map[string]*network.BookingInfo {
	infos := make(map[string]*network.BookingInfo, len(rows))
	for _, row := range rows {
		info := &network.BookingInfo{
			RuleID:      row.ID,
			Message:     row.Message,
			PhoneNumber: row.PhoneNumber,
			InfoURL:     row.InfoURL,
			BookingURL:  row.BookingURL,
		}
		switch strings.TrimSpace(row.Type) {
		case "1":
			info.Type = network.BookingSameDay
		case "2":
			info.Type = network.BookingPriorDays
		default:
			info.Type = network.BookingRealTime
		}
		if minutes, err := strconv.Atoi(strings.TrimSpace(row.PriorNoticeDurationMin)); err == nil {
			info.PriorNoticeDuration = time.Duration(minutes) * time.Minute
		}
		infos[row.ID] = info
	}
	return infos
}

// parseGtfsTime parses H:MM:SS, which may run past 24:00:00, into seconds
// since the start of the service day. An empty value is nil.
func parseGtfsTime(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid GTFS time %q", s)
	}
	var hms [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid GTFS time %q", s)
		}
		hms[i] = n
	}
	if hms[1] > 59 || hms[2] > 59 {
		return nil, fmt.Errorf("invalid GTFS time %q", s)
	}
	return network.Seconds(hms[0]*3600 + hms[1]*60 + hms[2]), nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}

// parsePolicy reads pickup_type / drop_off_type and the continuous columns.
// An empty value means fallback.
func parsePolicy(s string, fallback gtfs.PickupDropOffPolicy) gtfs.PickupDropOffPolicy {
	switch strings.TrimSpace(s) {
	case "0":
		return gtfs.PickupDropOffPolicy_Yes
	case "1":
		return gtfs.PickupDropOffPolicy_No
	case "2":
		return gtfs.PickupDropOffPolicy_PhoneAgency
	case "3":
		return gtfs.PickupDropOffPolicy_CoordinateWithDriver
	}
	return fallback
}
