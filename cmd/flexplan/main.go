package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "flexplan",
		Usage: "plan GTFS-Flex trips against a feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML or JSON configuration file",
				EnvVars: []string{"FLEXPLAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "gtfs",
				Usage:   "GTFS-Flex zip path or URL; overrides gtfs.url from the config file",
				EnvVars: []string{"FLEXPLAN_GTFS"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error; overrides log-level from the config file",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics in text format to this file on exit",
			},
		},
		Commands: []*cli.Command{
			planCommand(),
			dumpCommand(),
			serveCommand(),
		},
	}
}
