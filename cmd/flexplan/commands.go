package main

import (
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"flex.onebusaway.org/internal/app"
	"flex.onebusaway.org/internal/clock"
	"flex.onebusaway.org/internal/flex"
	"flex.onebusaway.org/internal/gtfs"
)

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "plan flex-only trips between two coordinates",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "from-lat", Required: true},
			&cli.Float64Flag{Name: "from-lon", Required: true},
			&cli.Float64Flag{Name: "to-lat", Required: true},
			&cli.Float64Flag{Name: "to-lon", Required: true},
			&cli.StringFlag{
				Name:  "time",
				Usage: "RFC 3339 time, or a local \"2006-01-02 15:04:05\" in the feed timezone; defaults to now",
			},
			&cli.BoolFlag{Name: "arrive-by", Usage: "treat --time as the latest arrival"},
			&cli.BoolFlag{Name: "connectors", Usage: "also list the access and egress connectors"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, func(application *app.Application) error {
				req := app.PlanRequest{
					FromLat:  c.Float64("from-lat"),
					FromLon:  c.Float64("from-lon"),
					ToLat:    c.Float64("to-lat"),
					ToLon:    c.Float64("to-lon"),
					ArriveBy: c.Bool("arrive-by"),
				}
				tz := application.GtfsManager.Snapshot().Timezone()
				if s := c.String("time"); s != "" {
					t, err := clock.ParseTime(s, tz)
					if err != nil {
						return fmt.Errorf("invalid --time %q: %w", s, err)
					}
					req.Time = t
				}

				result, err := application.Plan(c.Context, req)
				if err != nil {
					return err
				}
				printPlan(c.App.Writer, result, tz, c.Bool("connectors"))
				return nil
			})
		},
	}
}

func printPlan(w io.Writer, result *app.PlanResult, tz *time.Location, connectors bool) {
	fmt.Fprintf(w, "request %s at %s\n", result.RequestID, result.SearchTime.In(tz).Format(time.RFC3339))
	if len(result.Itineraries) == 0 {
		fmt.Fprintln(w, "no flex itineraries found")
	}
	for i, itinerary := range result.Itineraries {
		fmt.Fprintf(w, "itinerary %d: %s -> %s (%d min)\n", i+1,
			itinerary.StartTime().In(tz).Format("15:04"),
			itinerary.EndTime().In(tz).Format("15:04"),
			itinerary.DurationSeconds()/60)
		for _, leg := range itinerary.Legs {
			printLeg(w, leg, tz)
		}
	}
	if !connectors {
		return
	}
	for _, group := range []struct {
		name       string
		connectors []*flex.AccessEgress
	}{
		{"access", result.Accesses},
		{"egress", result.Egresses},
	} {
		fmt.Fprintf(w, "%s connectors: %d\n", group.name, len(group.connectors))
		for _, ae := range group.connectors {
			fmt.Fprintf(w, "  %s via %s [%d,%d] %ds walk %ds ride %ds walk\n",
				ae.Stop.ID, ae.Trip.ID(), ae.FromIndex, ae.ToIndex, ae.Times[0], ae.Times[1], ae.Times[2])
		}
	}
}

func printLeg(w io.Writer, leg flex.Leg, tz *time.Location) {
	fmt.Fprintf(w, "  %-4s %s -> %s  %s-%s  %.0f m",
		leg.Mode, leg.From.Name, leg.To.Name,
		leg.StartTime.In(tz).Format("15:04"), leg.EndTime.In(tz).Format("15:04"),
		leg.DistanceMeters)
	if leg.Mode == flex.LegModeFlex {
		fmt.Fprintf(w, "  trip %s route %s", leg.TripID, leg.RouteID)
		if info := leg.PickupBookingInfo; info != nil {
			fmt.Fprintf(w, "  book: %s", info.Message)
			if info.PhoneNumber != "" {
				fmt.Fprintf(w, " (%s)", info.PhoneNumber)
			}
		}
	}
	fmt.Fprintln(w)
}

// tripSummary is the dump view of one flex trip.
type tripSummary struct {
	ID    string
	Kind  string
	Route string
	Stops []string
}

// indexSummary is the dump view of the loaded network.
type indexSummary struct {
	Source      string
	LastUpdated time.Time
	Trips       int
	Stops       int
	Areas       int
	Region      *gtfs.RegionBounds
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "print the loaded flex trips, index or search dates",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "what", Value: "index", Usage: "trips, index or dates"},
			&cli.StringFlag{Name: "date", Usage: "search date for --what dates (2006-01-02); defaults to today"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, func(application *app.Application) error {
				data, err := dumpData(c, application)
				if err != nil {
					return err
				}
				spew.Fdump(c.App.Writer, data)
				return nil
			})
		},
	}
}

func dumpData(c *cli.Context, application *app.Application) (any, error) {
	manager := application.GtfsManager
	snapshot, index := manager.Current()

	switch what := c.String("what"); what {
	case "trips":
		trips := index.Trips()
		summaries := make([]tripSummary, 0, len(trips))
		for _, trip := range trips {
			summary := tripSummary{ID: trip.ID(), Kind: trip.Kind().String()}
			if route := trip.Trip().Route; route != nil {
				summary.Route = route.ID
			}
			for _, stop := range trip.Stops() {
				summary.Stops = append(summary.Stops, stop.ID)
			}
			summaries = append(summaries, summary)
		}
		return summaries, nil

	case "index":
		stats := manager.FlexStats()
		return indexSummary{
			Source:      application.GtfsConfig.GtfsURL,
			LastUpdated: manager.LastUpdated(),
			Trips:       stats.Trips,
			Stops:       stats.Stops,
			Areas:       stats.Areas,
			Region:      manager.RegionBounds(),
		}, nil

	case "dates":
		searchTime := application.Clock.Now()
		if s := c.String("date"); s != "" {
			t, err := clock.ParseTime(s, snapshot.Timezone())
			if err != nil {
				return nil, fmt.Errorf("invalid --date %q: %w", s, err)
			}
			searchTime = t
		}
		router, err := flex.NewRouter(flex.RouterParams{
			Snapshot:                   snapshot,
			Index:                      index,
			SearchTime:                 searchTime,
			AdditionalPastSearchDays:   application.Config.Router.AdditionalPastSearchDays,
			AdditionalFutureSearchDays: application.Config.Router.AdditionalFutureSearchDays,
			Logger:                     application.Logger,
		})
		if err != nil {
			return nil, err
		}
		return router.Dates(), nil

	default:
		return nil, fmt.Errorf("unknown --what %q: expected trips, index or dates", what)
	}
}
