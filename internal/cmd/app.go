// Package cmd provides the nestboard command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"nestboard/internal/app"
	"nestboard/internal/backup"
	"nestboard/internal/config"
	"nestboard/internal/logging"
	mcpserver "nestboard/internal/mcp"
	"nestboard/internal/secret"
)

// Version is set at build time.
var Version = "dev"

// verboseFlag is the shared verbose flag for all commands.
var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "Enable debug logging",
}

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "nestboard",
		Usage:   "Nested canvas of text and image cards",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data",
				Usage: "Data directory (default ~/.local/share/nestboard)",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Storage driver: sqlite, bolt, redis, postgres, mysql, mongo, memory",
			},
			verboseFlag,
		},
		Commands: []*cli.Command{
			serveCommand(),
			treeCommand(),
			exportCommand(),
			importCommand(),
			backupsCommand(),
			gcCommand(),
			secretCommand(),
		},
	}
}

// loadConfig reads the environment and applies global flags over it.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	overrides := map[string]any{}
	if v := cmd.String("data"); v != "" {
		overrides["data"] = v
	}
	if v := cmd.String("driver"); v != "" {
		overrides["storage.driver"] = v
	}
	if cmd.Bool("verbose") {
		overrides["log.level"] = "debug"
	}
	return config.Load(overrides)
}

// openApp loads configuration, sets up logging and opens the canvas.
func openApp(ctx context.Context, cmd *cli.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.Root().ErrWriter)
	return app.Open(ctx, cfg, secret.Default(), nil, logger)
}

// withApp runs fn against an opened canvas and closes it afterwards.
func withApp(ctx context.Context, cmd *cli.Command, fn func(a *app.App) error) (err error) {
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// serveCommand creates the serve subcommand.
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the canvas to MCP clients on stdin/stdout",
		Flags: []cli.Flag{verboseFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				if a.Degraded {
					a.Logger.Warn().Msg("edits will not survive this session")
				}
				if err := a.StartBackground(ctx); err != nil {
					return err
				}
				return mcpserver.New(a.Canvas, Version, a.Logger).ServeStdio()
			})
		},
	}
}

// treeCommand creates the tree subcommand.
func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the node hierarchy",
		Flags: []cli.Flag{verboseFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				printOutline(stdout(cmd), a.Canvas.Outline())
				return nil
			})
		},
	}
}

// exportCommand creates the export subcommand.
func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a snapshot of the whole canvas",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory for the snapshot (default: backup.dir)",
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Keep only this many snapshots in the directory (0 keeps all)",
				Value: -1,
			},
			verboseFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				dir := cmd.String("dir")
				if dir == "" {
					dir = a.Config.Backup.Dir
				}
				keep := cmd.Int("keep")
				if keep < 0 {
					keep = a.Config.Backup.Keep
				}
				path, err := backup.Export(ctx, a.Canvas, dir, keep, time.Now())
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Fprintln(stdout(cmd), path)
				return nil
			})
		},
	}
}

// importCommand creates the import subcommand.
func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the canvas with a snapshot",
		ArgsUsage: "<snapshot.json>",
		Flags:     []cli.Flag{verboseFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("snapshot path is required")
			}
			path := cmd.Args().Get(0)
			return withApp(ctx, cmd, func(a *app.App) error {
				if err := backup.Import(ctx, a.Canvas, path); err != nil {
					return err
				}
				displayImported(stdout(cmd), path, a.Canvas.Outline())
				return nil
			})
		},
	}
}

// backupsCommand creates the backups subcommand.
func backupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "List snapshots in the backup directory",
		Flags: []cli.Flag{verboseFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			files, err := backup.List(cfg.Backup.Dir)
			if err != nil {
				return err
			}
			displayBackups(stdout(cmd), cfg.Backup.Dir, files, time.Now())
			return nil
		},
	}
}

// gcCommand creates the gc subcommand.
func gcCommand() *cli.Command {
	return &cli.Command{
		Name:  "gc",
		Usage: "Show blob garbage collection status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "queue",
				Usage: "Queue unreferenced blobs for deletion",
			},
			verboseFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(a *app.App) error {
				if cmd.Bool("queue") {
					n, err := a.Canvas.QueueOrphans(ctx)
					if err != nil {
						return err
					}
					a.Logger.Info().Int("queued", n).Msg("orphaned blobs queued")
				}
				st, err := a.Canvas.GCStatus(ctx)
				if err != nil {
					return err
				}
				displayGCStatus(stdout(cmd), st)
				return nil
			})
		},
	}
}

// secretCommand manages credentials in the OS keychain.
func secretCommand() *cli.Command {
	keychain := func() (*secret.KeychainStore, error) {
		if !secret.KeychainAvailable() {
			return nil, fmt.Errorf("no keychain available; set %s instead", secret.EnvName(secret.KeyStoragePassword))
		}
		return secret.NewKeychainStore(), nil
	}
	return &cli.Command{
		Name:  "secret",
		Usage: "Store the storage password in the keychain",
		Commands: []*cli.Command{
			{
				Name:      "set",
				ArgsUsage: "<password>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("password is required")
					}
					k, err := keychain()
					if err != nil {
						return err
					}
					return k.Set(secret.KeyStoragePassword, []byte(cmd.Args().Get(0)))
				},
			},
			{
				Name: "delete",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					k, err := keychain()
					if err != nil {
						return err
					}
					return k.Delete(secret.KeyStoragePassword)
				},
			},
		},
	}
}
