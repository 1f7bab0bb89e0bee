package gtfs

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"flex.onebusaway.org/internal/logging"
	"flex.onebusaway.org/internal/network"
)

// LoadSnapshot parses a GTFS-Flex zip into a network snapshot. Agencies,
// routes, point stops, trips and calendars come from the base GTFS parser;
// flex areas, location groups, booking rules and the flex stop-time columns
// are read from the zip directly. Stop times that reference an unknown trip
// or location are skipped with a warning.
func LoadSnapshot(data []byte, logger *slog.Logger) (*network.Snapshot, error) {
	logger = logging.Component(logger, "gtfs_loader")

	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	files, err := openFeed(data)
	if err != nil {
		return nil, err
	}

	tz := time.UTC
	if len(static.Agencies) > 0 {
		if loc, err := time.LoadLocation(static.Agencies[0].Timezone); err == nil {
			tz = loc
		} else {
			logging.LogError(logger, "Unknown agency timezone, using UTC", err,
				slog.String("timezone", static.Agencies[0].Timezone))
		}
	}

	in := network.SnapshotInput{
		Timezone:  tz,
		StopTimes: make(map[string][]network.StopTime),
	}

	agencies := make(map[string]*network.Agency, len(static.Agencies))
	for _, a := range static.Agencies {
		agency := &network.Agency{ID: a.Id, Name: a.Name, Timezone: a.Timezone, Phone: a.Phone}
		agencies[a.Id] = agency
		in.Agencies = append(in.Agencies, agency)
	}

	routes := make(map[string]*network.Route, len(static.Routes))
	for _, r := range static.Routes {
		route := &network.Route{ID: r.Id, ShortName: r.ShortName, LongName: r.LongName, Type: r.Type}
		if r.Agency != nil {
			route.Agency = agencies[r.Agency.Id]
		}
		routes[r.Id] = route
		in.Routes = append(in.Routes, route)
	}

	locations := make(map[string]*network.StopLocation)
	for _, s := range static.Stops {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		stop := &network.StopLocation{
			ID:   s.Id,
			Name: s.Name,
			Kind: network.StopKindPoint,
			Lat:  *s.Latitude,
			Lon:  *s.Longitude,
		}
		locations[stop.ID] = stop
		in.Stops = append(in.Stops, stop)
	}

	areas, err := files.readAreas()
	if err != nil {
		return nil, err
	}
	for _, area := range areas {
		locations[area.ID] = area
		in.Stops = append(in.Stops, area)
	}

	groups, err := readGroups(files, locations, logger)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		locations[group.ID] = group
		in.Stops = append(in.Stops, group)
	}

	var ruleRows []bookingRuleRow
	if err := files.readCSV("booking_rules.txt", &ruleRows); err != nil {
		return nil, err
	}
	rules := bookingInfos(ruleRows)

	trips := make(map[string]struct{}, len(static.Trips))
	for _, t := range static.Trips {
		trip := &network.Trip{ID: t.ID, Headsign: t.Headsign}
		if t.Route != nil {
			trip.Route = routes[t.Route.Id]
		}
		if t.Service != nil {
			trip.ServiceID = t.Service.Id
		}
		if t.Shape != nil {
			trip.ShapeID = t.Shape.ID
		}
		trips[trip.ID] = struct{}{}
		in.Trips = append(in.Trips, trip)
	}

	var rows []stopTimeRow
	if err := files.readCSV("stop_times.txt", &rows); err != nil {
		return nil, err
	}
	skipped := 0
	for i, row := range rows {
		if _, ok := trips[row.TripID]; !ok {
			skipped++
			continue
		}
		st, err := toStopTime(row, locations, rules)
		if err != nil {
			skipped++
			if skipped <= 10 {
				logger.Warn("skipping stop time", slog.Int("row", i+2),
					slog.String("trip_id", row.TripID), slog.String("error", err.Error()))
			}
			continue
		}
		in.StopTimes[row.TripID] = append(in.StopTimes[row.TripID], st)
	}

	for _, s := range static.Services {
		in.Calendars = append(in.Calendars, toCalendar(s))
	}

	logging.LogOperation(logger, "gtfs_snapshot_loaded",
		slog.Int("agencies", len(in.Agencies)),
		slog.Int("routes", len(in.Routes)),
		slog.Int("stops", len(in.Stops)-len(areas)-len(groups)),
		slog.Int("areas", len(areas)),
		slog.Int("groups", len(groups)),
		slog.Int("trips", len(in.Trips)),
		slog.Int("stop_times", len(rows)-skipped),
		slog.Int("skipped_stop_times", skipped),
		slog.Int("parser_warnings", len(static.Warnings)))

	return network.NewSnapshot(in), nil
}

func readGroups(files feedFiles, locations map[string]*network.StopLocation, logger *slog.Logger) ([]*network.StopLocation, error) {
	var groupRows []locationGroupRow
	if err := files.readCSV("location_groups.txt", &groupRows); err != nil {
		return nil, err
	}
	var memberRows []locationGroupStopRow
	if err := files.readCSV("location_group_stops.txt", &memberRows); err != nil {
		return nil, err
	}

	members := make(map[string][]*network.StopLocation)
	for _, row := range memberRows {
		stop, ok := locations[row.StopID]
		if !ok || stop.Kind != network.StopKindPoint {
			logger.Warn("location group member is not a stop",
				slog.String("location_group_id", row.GroupID), slog.String("stop_id", row.StopID))
			continue
		}
		members[row.GroupID] = append(members[row.GroupID], stop)
	}

	groups := make([]*network.StopLocation, 0, len(groupRows))
	for _, row := range groupRows {
		if len(members[row.ID]) == 0 {
			logger.Warn("location group has no stops", slog.String("location_group_id", row.ID))
			continue
		}
		name := row.Name
		if name == "" {
			name = row.ID
		}
		groups = append(groups, network.NewGroup(row.ID, name, members[row.ID]))
	}
	return groups, nil
}

func toStopTime(row stopTimeRow, locations map[string]*network.StopLocation, rules map[string]*network.BookingInfo) (network.StopTime, error) {
	var st network.StopTime

	locationID := firstNonEmpty(row.StopID, row.LocationID, row.LocationGroupID)
	stop, ok := locations[locationID]
	if !ok {
		return st, fmt.Errorf("unknown location %q", locationID)
	}
	st.Stop = stop

	seq, err := strconv.Atoi(strings.TrimSpace(row.StopSequence))
	if err != nil {
		return st, fmt.Errorf("invalid stop_sequence %q", row.StopSequence)
	}
	st.StopSequence = seq

	for _, field := range []struct {
		raw string
		dst **int
	}{
		{row.ArrivalTime, &st.ArrivalTime},
		{row.DepartureTime, &st.DepartureTime},
		{row.WindowStart, &st.FlexWindowStart},
		{row.WindowEnd, &st.FlexWindowEnd},
	} {
		if *field.dst, err = parseGtfsTime(field.raw); err != nil {
			return st, err
		}
	}

	for _, field := range []struct {
		raw string
		dst **float64
	}{
		{row.MeanDurationFactor, &st.MeanDurationFactor},
		{row.MeanDurationOffset, &st.MeanDurationOffset},
		{row.SafeDurationFactor, &st.SafeDurationFactor},
		{row.SafeDurationOffset, &st.SafeDurationOffset},
	} {
		if *field.dst, err = parseOptionalFloat(field.raw); err != nil {
			return st, err
		}
	}

	st.PickupType = parsePolicy(row.PickupType, gtfs.PickupDropOffPolicy_Yes)
	st.DropOffType = parsePolicy(row.DropOffType, gtfs.PickupDropOffPolicy_Yes)
	st.ContinuousPickup = parsePolicy(row.ContinuousPickup, gtfs.PickupDropOffPolicy_No)
	st.ContinuousDropOff = parsePolicy(row.ContinuousDropOff, gtfs.PickupDropOffPolicy_No)

	st.PickupBookingInfo = rules[row.PickupBookingRuleID]
	st.DropOffBookingInfo = rules[row.DropOffBookingRuleID]
	return st, nil
}

func toCalendar(s gtfs.Service) network.Calendar {
	cal := network.Calendar{
		ServiceID: s.Id,
		StartDate: network.NewServiceDate(s.StartDate),
		EndDate:   network.NewServiceDate(s.EndDate),
	}
	cal.Weekdays[time.Monday] = s.Monday
	cal.Weekdays[time.Tuesday] = s.Tuesday
	cal.Weekdays[time.Wednesday] = s.Wednesday
	cal.Weekdays[time.Thursday] = s.Thursday
	cal.Weekdays[time.Friday] = s.Friday
	cal.Weekdays[time.Saturday] = s.Saturday
	cal.Weekdays[time.Sunday] = s.Sunday
	for _, d := range s.AddedDates {
		cal.AddedDates = append(cal.AddedDates, network.NewServiceDate(d))
	}
	for _, d := range s.RemovedDates {
		cal.RemovedDates = append(cal.RemovedDates, network.NewServiceDate(d))
	}
	return cal
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
