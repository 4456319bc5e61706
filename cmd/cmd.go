// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

// serveCommand starts the web API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// chartsCommand fetches and ingests provider charts
func chartsCommand(r *Runner) *cli.Command {
	chartFlags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "country",
			Usage: "Two-letter country code (XW for worldwide)",
			Value: "XW",
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "Chart page to fetch",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Number of entries per page",
			Value: 7,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: json, csv, md, text",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}

	return &cli.Command{
		Name:  "charts",
		Usage: "Fetch provider charts into the local catalog",
		Commands: []*cli.Command{
			{
				Name:   "tracks",
				Usage:  "Fetch the top tracks chart",
				Flags:  chartFlags,
				Action: r.ChartTracks,
			},
			{
				Name:   "artists",
				Usage:  "Fetch the top artists chart",
				Flags:  chartFlags,
				Action: r.ChartArtists,
			},
		},
	}
}

// searchCommand searches the provider catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the provider catalog and ingest the results",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Number of results to return",
				Value: 5,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, md, text",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// browseCommand launches the interactive catalog browser
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "browse",
		Usage:  "Browse the local catalog in an interactive TUI",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Browse,
	}
}
