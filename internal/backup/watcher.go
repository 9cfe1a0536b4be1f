package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// importedSuffix marks a dropped snapshot that has been handled.
const importedSuffix = ".imported"

// Watcher imports snapshot files dropped into a folder. Each file is imported
// once and then renamed with an ".imported" or ".failed" suffix. Files must be
// moved into the folder whole; one written in place may be read half-done.
type Watcher struct {
	canvas  Canvas
	dir     string
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}

	onImport func(path string, err error)
}

// NewWatcher creates the drop folder if needed and starts watching it.
// onImport, when not nil, is called after each import attempt.
func NewWatcher(ctx context.Context, c Canvas, dir string, logger zerolog.Logger, onImport func(path string, err error)) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create import dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{canvas: c, dir: dir, logger: logger, watcher: fw, done: make(chan struct{}), onImport: onImport}
	go w.watchLoop(ctx)
	w.logger.Info().Str("dir", dir).Msg("watching import folder")
	return w, nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.handle(ctx, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("import watcher error")
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if !strings.HasSuffix(path, fileExt) || strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if _, err := os.Stat(path); err != nil {
		// already handled by an earlier event
		return
	}

	var importErr error
	ran, err := w.canvas.RunJob(ctx, JobImport, func(ctx context.Context) error {
		importErr = Import(ctx, w.canvas, path)
		return nil
	})
	if err != nil || !ran {
		return
	}

	suffix := importedSuffix
	if importErr != nil {
		suffix = ".failed"
		w.logger.Error().Err(importErr).Str("path", path).Msg("snapshot import failed")
	} else {
		w.logger.Info().Str("path", path).Msg("snapshot imported")
	}
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("could not mark dropped snapshot")
	}
	if w.onImport != nil {
		w.onImport(path, importErr)
	}
}
