// Package app wires configuration, storage and the canvas service together.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"nestboard/internal/backup"
	"nestboard/internal/config"
	"nestboard/internal/document"
	"nestboard/internal/secret"
	"nestboard/internal/service"
	"nestboard/internal/storage"
)

// App is one opened canvas with its storage and background jobs.
type App struct {
	Config config.Config
	Logger zerolog.Logger
	Canvas *service.CanvasService

	// Degraded is set when the configured engine could not be opened and
	// the canvas lives in memory only.
	Degraded bool

	port      storage.Port
	scheduler *backup.Scheduler
	watcher   *backup.Watcher
}

// Open resolves credentials, opens storage and loads the canvas.
func Open(ctx context.Context, cfg config.Config, secrets secret.SecretStore, emitter service.EventEmitter, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	password, err := secret.Resolve(secrets, secret.KeyStoragePassword, cfg.Storage.Password)
	if err != nil {
		return nil, fmt.Errorf("resolve storage password: %w", err)
	}
	cfg.Storage.Password = password

	port, degraded := storage.Open(ctx, cfg.Storage, cfg.Blobs, logger)

	doc := document.New(port,
		document.WithLogger(logger),
		document.WithGCDelay(cfg.GC.Delay),
		document.WithBlobWorkers(cfg.GC.Workers),
	)
	canvas := service.NewCanvasService(doc, emitter, logger, service.Options{
		HistoryLimit:   cfg.History.Limit,
		QuickLinkTTL:   cfg.Links.TTL,
		BackupInterval: cfg.Backup.Interval,
	})
	if err := canvas.Load(ctx); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("load canvas: %w", err)
	}

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Bool("degraded", degraded).
		Msg("canvas opened")

	return &App{
		Config:   cfg,
		Logger:   logger,
		Canvas:   canvas,
		Degraded: degraded,
		port:     port,
	}, nil
}

// StartBackground starts the backup schedule and the import drop folder
// when they are configured.
func (a *App) StartBackground(ctx context.Context) error {
	if spec := a.Config.Backup.Schedule; spec != "" {
		a.scheduler = backup.NewScheduler(a.Canvas, a.Config.Backup.Dir, a.Config.Backup.Keep, a.Logger)
		if err := a.scheduler.Start(ctx, spec); err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
	}
	if dir := a.Config.Backup.Watch; dir != "" {
		w, err := backup.NewWatcher(ctx, a.Canvas, dir, a.Logger, nil)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		a.watcher = w
	}
	if a.Canvas.BackupDue() {
		a.Logger.Warn().Str("dir", a.Config.Backup.Dir).Msg("backup recommended: run `nestboard export`")
	}
	return nil
}

// Close stops background jobs, flushes the canvas and closes storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	errs = append(errs, a.Canvas.Close(ctx), a.port.Close())
	return errors.Join(errs...)
}
