// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// outputFlags are the --json/--pretty pair shared by read commands.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func withOutput(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing and run migrations",
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
				Name:   "status",
				Usage:  "List migrations and when they were applied",
				Flags:  outputFlags(),
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
		},
		Action: r.Serve,
	}
}

func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Server base URL (default from config)",
			},
		},
		Action: r.Health,
	}
}

func categoryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "category",
		Aliases: []string{"cat"},
		Usage:   "Manage song categories",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List categories in display order",
				Flags:  outputFlags(),
				Action: r.CategoryList,
			},
			{
				Name:      "add",
				Usage:     "Create a category",
				ArgsUsage: "<name>",
				Flags: withOutput(
					&cli.StringFlag{Name: "slug", Usage: "URL key (default derived from the name)"},
					&cli.IntFlag{Name: "order", Usage: "Display order index"},
				),
				Action: r.CategoryAdd,
			},
			{
				Name:      "edit",
				Usage:     "Rename, re-slug or reorder a category",
				ArgsUsage: "<id|slug>",
				Flags: withOutput(
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "slug", Usage: "New slug"},
					&cli.IntFlag{Name: "order", Usage: "New display order index"},
				),
				Action: r.CategoryEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a category; its songs become uncategorized",
				ArgsUsage: "<id|slug>",
				Action:    r.CategoryDelete,
			},
		},
	}
}

func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Manage the repertoire",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs by title",
				Flags: withOutput(
					&cli.StringFlag{Name: "category", Usage: "Category slug"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Title search, accents ignored"},
				),
				Action: r.SongList,
			},
			{
				Name:      "show",
				Usage:     "Show a song with its parts",
				ArgsUsage: "<id>",
				Flags:     outputFlags(),
				Action:    r.SongShow,
			},
			{
				Name:      "import",
				Usage:     "Create songs from TOML song sheets",
				ArgsUsage: "<file.toml>...",
				Flags:     outputFlags(),
				Action:    r.SongImport,
			},
			{
				Name:      "update",
				Usage:     "Update song fields, or replace its parts from a song sheet",
				ArgsUsage: "<id>",
				Flags: withOutput(
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "key", Usage: "Musical key"},
					&cli.StringFlag{Name: "category", Usage: "Category slug, empty to clear"},
					&cli.StringFlag{Name: "audio-url", Usage: "Audio link"},
					&cli.StringFlag{Name: "video-url", Usage: "Video link"},
					&cli.StringFlag{Name: "file", Usage: "Song sheet whose parts replace the current ones"},
				),
				Action: r.SongUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Remove a song from the repertoire; programs keep a placeholder entry",
				ArgsUsage: "<id>",
				Action:    r.SongDelete,
			},
		},
	}
}

func massCommand(r *Runner) *cli.Command {
	massFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "mass", Aliases: []string{"m"}, Usage: "Mass ID", Required: true}
	}
	entryFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "entry", Aliases: []string{"e"}, Usage: "Entry ID", Required: true}
	}

	return &cli.Command{
		Name:  "mass",
		Usage: "Plan mass programs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List masses, most recent first",
				Flags: withOutput(
					&cli.StringFlag{Name: "from", Usage: "First date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Last date (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "published", Usage: "Only published masses"},
				),
				Action: r.MassList,
			},
			{
				Name:   "next",
				Usage:  "Show the next mass from today",
				Flags:  withOutput(&cli.BoolFlag{Name: "published", Usage: "Only published masses"}),
				Action: r.MassNext,
			},
			{
				Name:  "calendar",
				Usage: "Upcoming masses grouped by month",
				Flags: withOutput(
					&cli.IntFlag{Name: "months", Usage: "Number of months to show", Value: 3},
				),
				Action: r.MassCalendar,
			},
			{
				Name:  "create",
				Usage: "Create a mass",
				Flags: withOutput(
					&cli.StringFlag{Name: "name", Usage: "Mass name", Required: true},
					&cli.StringFlag{Name: "date", Usage: "Date (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Creator email"},
				),
				Action: r.MassCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a program with its warnings",
				ArgsUsage: "<mass-id>",
				Flags:     outputFlags(),
				Action:    r.MassShow,
			},
			{
				Name:  "add",
				Usage: "Append a song to a program",
				Flags: withOutput(
					massFlag(),
					&cli.StringFlag{Name: "song", Aliases: []string{"s"}, Usage: "Song ID", Required: true},
					&cli.StringFlag{Name: "moment", Usage: "Liturgical moment (default: the song's category)"},
					&cli.StringFlag{Name: "parts", Usage: `Part indices, e.g. "0,2"; "none" selects nothing (default: all)`},
				),
				Action: r.MassAdd,
			},
			{
				Name:   "remove",
				Usage:  "Remove an entry from a program",
				Flags:  []cli.Flag{massFlag(), entryFlag()},
				Action: r.MassRemove,
			},
			{
				Name:  "toggle-part",
				Usage: "Select or deselect one part of an entry",
				Flags: withOutput(
					massFlag(), entryFlag(),
					&cli.IntFlag{Name: "index", Aliases: []string{"i"}, Usage: "Part index", Required: true},
				),
				Action: r.MassTogglePart,
			},
			{
				Name:      "publish",
				Usage:     "Publish a mass, or hide it again",
				ArgsUsage: "<mass-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unpublish", Usage: "Hide the mass from anonymous visitors"},
				},
				Action: r.MassPublish,
			},
			{
				Name:      "delete",
				Usage:     "Delete a mass",
				ArgsUsage: "<mass-id>",
				Action:    r.MassDelete,
			},
			{
				Name:      "export",
				Usage:     "Export a program to a file",
				ArgsUsage: "<mass-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "pdf, docx, md or txt", Value: "pdf"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default from config)"},
					&cli.BoolFlag{Name: "open", Usage: "Open the written file in the system viewer"},
				},
				Action: r.MassExport,
			},
			{
				Name:  "export-all",
				Usage: "Export many programs concurrently with a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "pdf, docx, md or txt", Value: "pdf"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: cantus_export_{epoch})"},
					&cli.StringFlag{Name: "from", Usage: "First date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Last date (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "published", Usage: "Only published masses"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers (default from config)"},
				},
				Action: r.MassExportAll,
			},
		},
	}
}

func favoriteCommand(r *Runner) *cli.Command {
	emailFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "email", Usage: "Member email", Required: true}
	}

	return &cli.Command{
		Name:    "favorite",
		Aliases: []string{"fav"},
		Usage:   "Manage a member's favorite songs",
		Commands: []*cli.Command{
			{
				Name:      "toggle",
				Usage:     "Add or remove a favorite",
				ArgsUsage: "<song-id>",
				Flags:     []cli.Flag{emailFlag()},
				Action:    r.FavoriteToggle,
			},
			{
				Name:   "list",
				Usage:  "List favorite songs",
				Flags:  withOutput(emailFlag()),
				Action: r.FavoriteList,
			},
		},
	}
}

func memberCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "member",
		Usage: "Manage members and roles",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List members",
				Flags:  outputFlags(),
				Action: r.MemberList,
			},
			{
				Name:  "role",
				Usage: "Change a member's role",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Member email", Required: true},
					&cli.StringFlag{Name: "role", Usage: "user, moderator or admin", Required: true},
				},
				Action: r.MemberRole,
			},
		},
	}
}

func adminCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Provision administrators",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Grant the admin role to a member, creating the profile when a subject is given",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Admin email (default: $CANTUS_ADMIN_EMAIL)", Sources: cli.EnvVars("CANTUS_ADMIN_EMAIL")},
					&cli.StringFlag{Name: "subject", Usage: "Identity provider subject (default: $CANTUS_ADMIN_SUBJECT)", Sources: cli.EnvVars("CANTUS_ADMIN_SUBJECT")},
					&cli.StringFlag{Name: "name", Usage: "Full name"},
					&cli.StringFlag{Name: "env-file", Usage: "Dotenv file to load first", Value: ".env"},
				},
				Action: r.AdminCreate,
			},
		},
	}
}

func rehearsalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rehearsal",
		Usage: "Browse programs and lyrics in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Member email, enables favorites"},
			&cli.StringFlag{Name: "log", Usage: "Log file while the TUI runs", Value: "./tmp/cantus-tui.log"},
		},
		Action: r.Rehearsal,
	}
}
