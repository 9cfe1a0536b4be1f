package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"nestboard/internal/storage"
)

// Canvas is the part of the canvas service backups need.
type Canvas interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context, port storage.Port) error) error
	Replace(ctx context.Context, fn func(ctx context.Context, port storage.Port) error) error
	RunJob(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error)
	MarkBackedUp(ctx context.Context) error
}

// Job names used with Canvas.RunJob.
const (
	JobBackup = "backup"
	JobImport = "import"
)

// Export writes a snapshot file into dir and moves the backup checkpoint.
func Export(ctx context.Context, c Canvas, dir string, keep int, now time.Time) (string, error) {
	var path string
	err := c.Snapshot(ctx, func(ctx context.Context, port storage.Port) error {
		var err error
		path, err = WriteFile(ctx, port, dir, now)
		return err
	})
	if err != nil {
		return "", err
	}
	if err := c.MarkBackedUp(ctx); err != nil {
		return path, err
	}
	if _, err := Prune(dir, keep); err != nil {
		return path, fmt.Errorf("prune backups: %w", err)
	}
	return path, nil
}

// Import replaces the document with the snapshot file at path and reloads it.
func Import(ctx context.Context, c Canvas, path string) error {
	snap, err := ReadFile(path)
	if err != nil {
		return err
	}
	return c.Replace(ctx, func(ctx context.Context, port storage.Port) error {
		return snap.Write(ctx, port)
	})
}

// ─────────────────────────────────────────────────────────────
// Scheduler: periodic snapshots on a cron expression
// ─────────────────────────────────────────────────────────────

// Scheduler writes a snapshot into a directory on a cron schedule.
type Scheduler struct {
	canvas Canvas
	dir    string
	keep   int
	logger zerolog.Logger
	now    func() time.Time

	cron *cron.Cron
}

func NewScheduler(c Canvas, dir string, keep int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{canvas: c, dir: dir, keep: keep, logger: logger, now: time.Now}
}

// Start schedules backups on spec (standard cron syntax or "@every 1h").
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Run(ctx) }); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info().Str("schedule", spec).Str("dir", s.dir).Msg("backup scheduler started")
	return nil
}

// Run takes one backup now unless one is already in progress.
func (s *Scheduler) Run(ctx context.Context) {
	ran, err := s.canvas.RunJob(ctx, JobBackup, func(ctx context.Context) error {
		path, err := Export(ctx, s.canvas, s.dir, s.keep, s.now())
		if err == nil {
			s.logger.Info().Str("path", path).Msg("backup written")
		}
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	if !ran {
		s.logger.Debug().Msg("backup already running")
	}
}

// Stop halts the schedule and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
