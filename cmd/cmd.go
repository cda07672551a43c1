// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// sourceFlags select where a grid command gets its rows from.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Load rows from a stored playlist by name",
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Load rows from an exported JSON or CSV file",
		},
	}
}

// outputFlags control how result rows are rendered.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write rows to a file (.json or .csv) instead of stdout",
		},
	}
}

// searchCommand queries the catalog.
func searchCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "scope",
			Aliases: []string{"s"},
			Usage:   "Search scope: all, anime, artist, song, composer, season, ann, ann-song, amq-song, mal",
			Value:   "all",
		},
		&cli.StringFlag{Name: "anime", Usage: "Advanced mode: anime title term"},
		&cli.StringFlag{Name: "artist", Usage: "Advanced mode: artist term"},
		&cli.StringFlag{Name: "song", Usage: "Advanced mode: song name term"},
		&cli.StringFlag{Name: "composer", Usage: "Advanced mode: composer term"},
		&cli.BoolFlag{Name: "and", Usage: "Advanced mode: require all fields (intersection)"},
		&cli.BoolFlag{Name: "match-case", Usage: "Case-sensitive refinement of text matches"},
		&cli.BoolFlag{Name: "exact", Usage: "Disable partial matching"},
		&cli.BoolFlag{Name: "arrangement", Usage: "Include arrangements when matching composers"},
		&cli.BoolFlag{Name: "ignore-duplicate", Usage: "Drop duplicate songs server-side"},
		&cli.IntFlag{Name: "group-granularity", Usage: "Artist group expansion granularity"},
		&cli.IntFlag{Name: "max-other-artist", Usage: "Max other artists when expanding groups", Value: 99},
		&cli.StringFlag{Name: "types", Usage: "Song types to include (op,ed,in)", Value: "op,ed,in"},
		&cli.StringFlag{Name: "broadcasts", Usage: "Broadcasts to include (normal,dub,rebroadcast)", Value: "normal,dub,rebroadcast"},
		&cli.StringFlag{Name: "categories", Usage: "Song categories to include (standard,character,chanting,instrumental)", Value: "standard,character,chanting,instrumental"},
		&cli.StringFlag{Name: "save", Usage: "Save result song ids as a playlist with this name"},
	}
	flags = append(flags, outputFlags()...)

	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search AnisongDB and print the result grid",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags:     flags,
		Action:    r.Search,
	}
}

// tableCommand reworks a loaded row set: sort, shuffle, reverse, filter.
func tableCommand(r *Runner) *cli.Command {
	withSource := func(flags ...cli.Flag) []cli.Flag {
		return append(append(flags, sourceFlags()...), outputFlags()...)
	}

	return &cli.Command{
		Name:  "table",
		Usage: "Work a loaded row set like the results grid",
		Commands: []*cli.Command{
			{
				Name:  "sort",
				Usage: "Sort rows by a grid column",
				Flags: withSource(
					&cli.StringFlag{
						Name:     "column",
						Aliases:  []string{"c"},
						Usage:    "Column key (annid, anime, type, song, artist, vintage, difficulty, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Sort direction: asc or desc",
						Value: "asc",
					},
				),
				Action: r.TableSort,
			},
			{
				Name:   "shuffle",
				Usage:  "Shuffle rows into a random manual order",
				Flags:  withSource(),
				Action: r.TableShuffle,
			},
			{
				Name:   "reverse",
				Usage:  "Reverse the current row order",
				Flags:  withSource(),
				Action: r.TableReverse,
			},
			{
				Name:  "filter",
				Usage: "Keep or remove rows matching a field query",
				Flags: withSource(
					&cli.StringFlag{
						Name:  "action",
						Usage: "keep or remove",
						Value: "keep",
					},
					&cli.StringFlag{
						Name:     "field",
						Aliases:  []string{"f"},
						Usage:    "Field to match (anime, artist, song, vintage, type, difficulty, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Filter query (text, year range, or numeric range)",
						Required: true,
					},
					&cli.BoolFlag{Name: "exact", Usage: "Disable substring matching"},
					&cli.BoolFlag{Name: "match-case", Usage: "Case-sensitive matching"},
				),
				Action: r.TableFilter,
			},
			{
				Name:   "stats",
				Usage:  "Show row counts and duplicate natural keys",
				Flags:  append(sourceFlags(), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}),
				Action: r.TableStats,
			},
		},
	}
}

// linksCommand probes media link reachability.
func linksCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent probes (max 10)",
		},
		&cli.BoolFlag{Name: "dead-only", Usage: "Only print rows whose links are all unreachable"},
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
	)
	return &cli.Command{
		Name:   "links",
		Usage:  "Check media link reachability for every row",
		Flags:  flags,
		Action: r.LinksCheck,
	}
}

// rebuildCommand re-downloads rows by song id.
func rebuildCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(), outputFlags()...)
	return &cli.Command{
		Name:   "rebuild",
		Usage:  "Re-download every row from the catalog, keeping row order",
		Flags:  flags,
		Action: r.Rebuild,
	}
}

// playlistCommand manages locally stored playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage locally stored playlists",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a playlist from an exported file's song ids",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Exported JSON or CSV file to take song ids from",
						Required: true,
					},
					&cli.StringFlag{Name: "description", Usage: "Playlist description"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:   "list",
				Usage:  "List stored playlists",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.PlaylistList,
			},
			{
				Name:      "show",
				Usage:     "Fetch and print a playlist's rows",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     outputFlags(),
				Action:    r.PlaylistShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistDelete,
			},
		},
	}
}

// exportCommand writes a row set to CSV or JSON.
func exportCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    "Output file (.csv or .json)",
			Required: true,
		},
	)
	return &cli.Command{
		Name:   "export",
		Usage:  "Export a row set to CSV or JSON",
		Flags:  flags,
		Action: r.Export,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive grid.
func tuiCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:    "scope",
			Aliases: []string{"s"},
			Usage:   "Search scope for the initial query",
			Value:   "all",
		},
	)
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive results grid",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags:     flags,
		Action:    r.TUI,
	}
}
