// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: prettyDefault,
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and local database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write config.toml and fill in the auth service settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Auth service project URL",
					},
					&cli.StringFlag{
						Name:  "anon-key",
						Usage: "Public anon key of the project",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and manage your account",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Full name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
				},
				Action: r.AuthSignUp,
			},
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "provider",
				Usage: "Sign in with GitHub or Google in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider"},
				},
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultCallbackTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening it",
					},
				},
				Action: r.AuthProvider,
			},
			{
				Name:   "logout",
				Usage:  "Sign out",
				Action: r.AuthLogout,
			},
			{
				Name:  "reset",
				Usage: "Send a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
				},
				Action: r.AuthReset,
			},
			{
				Name:   "status",
				Usage:  "Show whether you are signed in",
				Flags:  jsonFlags(false),
				Action: r.AuthStatus,
			},
			{
				Name:  "profile",
				Usage: "Show or update your profile",
				Flags: append(jsonFlags(false),
					&cli.StringFlag{Name: "name", Usage: "New full name"},
					&cli.StringFlag{Name: "avatar", Usage: "New avatar URL"},
				),
				Action: r.AuthProfile,
			},
		},
	}
}

func coursesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "courses",
		Usage: "Browse the course catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List courses with your progress",
				Flags: append(jsonFlags(false),
					&cli.BoolFlag{Name: "starred", Usage: "Only starred courses"},
					&cli.StringFlag{Name: "difficulty", Usage: "Beginner, Intermediate or Advanced"},
				),
				Action: r.CoursesList,
			},
			{
				Name:  "show",
				Usage: "Show a course and its videos",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  jsonFlags(true),
				Action: r.CoursesShow,
			},
			{
				Name:  "search",
				Usage: "Search course and video titles",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  jsonFlags(false),
				Action: r.CoursesSearch,
			},
			{
				Name:  "star",
				Usage: "Star or unstar a course",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CoursesStar,
			},
			{
				Name:   "announcements",
				Usage:  "Show active announcements",
				Flags:  jsonFlags(false),
				Action: r.CoursesAnnouncements,
			},
		},
	}
}

func videosCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }

	return &cli.Command{
		Name:  "videos",
		Usage: "Track videos",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a video",
				Arguments: idArg(),
				Flags: append(jsonFlags(true),
					&cli.BoolFlag{Name: "open", Usage: "Open the video in the browser"},
				),
				Action: r.VideosShow,
			},
			{
				Name:      "complete",
				Usage:     "Mark a video as completed",
				Arguments: idArg(),
				Action:    r.VideosComplete,
			},
			{
				Name:      "incomplete",
				Usage:     "Mark a video as not completed",
				Arguments: idArg(),
				Action:    r.VideosIncomplete,
			},
			{
				Name:      "star",
				Usage:     "Star or unstar a video",
				Arguments: idArg(),
				Action:    r.VideosStar,
			},
			{
				Name:  "check",
				Usage: "Check that video, notes and practice links still resolve",
				Flags: append(jsonFlags(true),
					&cli.StringFlag{Name: "course", Usage: "Only check one course"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
				),
				Action: r.VideosCheck,
			},
		},
	}
}

func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Progress kept on this device",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show completed and starred counts",
				Flags:  jsonFlags(false),
				Action: r.ProgressStats,
			},
			{
				Name:  "export",
				Usage: "Export a progress report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (prints to stdout when omitted)",
					},
				},
				Action: r.ProgressExport,
			},
			{
				Name:  "reset",
				Usage: "Forget all progress on this device",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
				},
				Action: r.ProgressReset,
			},
		},
	}
}

func storageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "storage",
		Usage: "Inspect persisted client state",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored keys",
				Flags:  jsonFlags(false),
				Action: r.StorageList,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the local JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse courses in the terminal",
		Action: r.TUI,
	}
}
