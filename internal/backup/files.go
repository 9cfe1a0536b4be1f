package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"nestboard/internal/storage"
)

const (
	filePrefix = "nestboard-"
	fileExt    = ".json"
	timeLayout = "20060102-150405"
)

// FileName is the name a snapshot taken at t is written under.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileExt
}

// WriteFile snapshots storage into dir. The file appears atomically.
func WriteFile(ctx context.Context, port storage.Port, dir string, now time.Time) (string, error) {
	snap, err := Read(ctx, port, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snap.Encode(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	return path, nil
}

// ReadFile loads and validates a snapshot file.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// List returns the snapshot files in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// the timestamp layout sorts lexically
	slices.Sort(out)
	return out, nil
}

// Prune deletes all but the newest keep snapshots. keep <= 0 keeps everything.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	files, err := List(dir)
	if err != nil || len(files) <= keep {
		return nil, err
	}
	old := files[:len(files)-keep]
	for _, f := range old {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return old, nil
}
