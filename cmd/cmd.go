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

// downloadCommand acquires, converts and tags every track behind the given references.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl", "get"},
		Usage:     "Download tracks, playlists or albums as tagged MP3 files",
		ArgsUsage: "[URL...]",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output root directory (overrides download.output_dir)",
			},
			&cli.StringFlag{
				Name:    "batch-file",
				Aliases: []string{"b"},
				Usage:   "File with one URL per line; blank lines and # comments are ignored",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent workers (overrides download.workers)",
			},
			&cli.BoolFlag{
				Name:  "no-meta",
				Usage: "Do not write title, artist, album and track number tags",
			},
			&cli.BoolFlag{
				Name:  "no-cover",
				Usage: "Do not look up or embed cover art",
			},
			&cli.BoolFlag{
				Name:  "no-lyrics",
				Usage: "Do not look up lyrics",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the lookup cache and track catalog database",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Log progress lines instead of drawing progress bars",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the output directory when the run finishes",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Append log records to this file instead of the terminal",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log enrichment details",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Action: r.Download,
	}
}

// historyCommand lists tracks recorded by previous runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recently produced tracks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of tracks to list",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// cacheCommand manages the artwork and lyrics lookup cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the lookup cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show the number of cached lookups by kind",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Remove cached lookups",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only clear one kind (artwork or lyrics)",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// doctorCommand reports whether the external tools are installed.
func doctorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Usage:  "Check that yt-dlp, ffmpeg and ffprobe are available",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Doctor,
	}
}
