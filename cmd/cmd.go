// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
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
	}
}

func timeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "time",
		Usage: `Timestamp rendering: "ago", "date", "datetime", "rfc3339" or a Go layout`,
		Value: "ago",
	}
}

// setupCommand handles configuration and local storage maintenance.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "storage",
				Usage:  "Create the local storage database and run migrations",
				Action: r.SetupStorage,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent storage migration",
				Action: r.StorageRollback,
			},
			{
				Name:   "entries",
				Usage:  "List local storage entries",
				Flags:  jsonFlags(),
				Action: r.StorageList,
			},
			{
				Name:   "reset",
				Usage:  "Remove every local storage entry, including the session",
				Action: r.StorageClear,
			},
		},
	}
}

// authCommand handles sign-in and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in identity",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Verify an identity assertion and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "assertion",
						Aliases: []string{"a"},
						Usage:   "Identity assertion to verify (defaults to identity.assertion, then the browser flow)",
					},
					&cli.BoolFlag{
						Name:  "browser",
						Usage: "Always run the browser sign-in flow",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session locally and at the identity provider",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// mediaCommand handles media listing and progress operations
func mediaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "media",
		Aliases: []string{"m"},
		Usage:   "List media and track progress",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List media grouped by root with progress",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Only show media under this root",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, markdown, csv, json)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.MediaList,
			},
			{
				Name:   "roots",
				Usage:  "List media roots with counts",
				Flags:  jsonFlags(),
				Action: r.MediaRoots,
			},
			{
				Name:   "progress",
				Usage:  "List every progress record",
				Flags:  append(jsonFlags(), timeFlag()),
				Action: r.MediaProgress,
			},
			{
				Name:   "in-progress",
				Usage:  "List media someone has started",
				Flags:  append(jsonFlags(), timeFlag()),
				Action: r.MediaInProgress,
			},
			{
				Name:   "finished",
				Usage:  "List media someone has finished",
				Flags:  append(jsonFlags(), timeFlag()),
				Action: r.MediaFinished,
			},
			markCommand(r, "start", "Mark media as started"),
			markCommand(r, "finish", "Mark media as finished"),
			markCommand(r, "clear", "Clear progress on media"),
			{
				Name:      "bulk",
				Usage:     "Apply start, finish or clear to many media at once",
				ArgsUsage: "[media-id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "action",
						Usage:    "start, finish or clear",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Include every media item under this root",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent requests",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second",
						Value: 5,
					},
				},
				Action: r.MediaBulk,
			},
		},
	}
}

func markCommand(r *Runner, name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.MediaMark,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the tracker server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  jsonFlags(),
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body and the session token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive progress tracking.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Start filtered to this root",
			},
		},
		Action: r.TUI,
	}
}
