// Package backup exports and imports whole-document snapshots, writes them on
// a schedule, and watches a drop folder for snapshots to import.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

// FormatVersion is the snapshot version written by Export.
const FormatVersion = 1

const appName = "nestboard"

// Snapshot is the portable form of a document: every node, the app state and
// every blob.
type Snapshot struct {
	App       string           `json:"app"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	Nodes     []domain.Node    `json:"nodes"`
	AppState  *domain.AppState `json:"appState,omitempty"`
	Blobs     []domain.Blob    `json:"blobs"`
}

// Read collects a snapshot from storage.
func Read(ctx context.Context, port storage.Port, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{App: appName, Version: FormatVersion, CreatedAt: now.UTC()}

	keys, err := port.ListKeys(ctx, storage.StoreNodes)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	for _, id := range keys {
		if id == domain.AppStateID {
			var st domain.AppState
			if _, err := storage.GetJSON(ctx, port, storage.StoreNodes, id, &st); err != nil {
				return nil, fmt.Errorf("read app state: %w", err)
			}
			snap.AppState = &st
			continue
		}
		var n domain.Node
		found, err := storage.GetJSON(ctx, port, storage.StoreNodes, id, &n)
		if err != nil {
			return nil, fmt.Errorf("read node %s: %w", id, err)
		}
		if found {
			n.ID = id
			snap.Nodes = append(snap.Nodes, n)
		}
	}

	keys, err = port.ListKeys(ctx, storage.StoreBlobs)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	for _, id := range keys {
		var b domain.Blob
		found, err := storage.GetJSON(ctx, port, storage.StoreBlobs, id, &b)
		if err != nil {
			return nil, fmt.Errorf("read blob %s: %w", id, err)
		}
		if found {
			b.ID = id
			snap.Blobs = append(snap.Blobs, b)
		}
	}
	return snap, nil
}

// Validate checks that a snapshot can be imported.
func (s *Snapshot) Validate() error {
	if s.App != "" && s.App != appName {
		return fmt.Errorf("%w: written by %q", domain.ErrInvalidSnapshot, s.App)
	}
	if s.Version < 1 || s.Version > FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidSnapshot, s.Version)
	}
	seen := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", domain.ErrInvalidSnapshot)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %s", domain.ErrInvalidSnapshot, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	if _, ok := seen[domain.RootID]; !ok {
		return fmt.Errorf("%w: no root node", domain.ErrInvalidSnapshot)
	}
	return nil
}

// Write replaces everything in storage with the snapshot.
func (s *Snapshot) Write(ctx context.Context, port storage.Port) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, st := range storage.Stores {
		if err := port.Clear(ctx, st); err != nil {
			return fmt.Errorf("clear %s: %w", st, err)
		}
	}
	for _, n := range s.Nodes {
		if err := storage.PutJSON(ctx, port, storage.StoreNodes, n.ID, n); err != nil {
			return fmt.Errorf("write node %s: %w", n.ID, err)
		}
	}
	if s.AppState != nil {
		st := *s.AppState
		st.ID = domain.AppStateID
		if err := storage.PutJSON(ctx, port, storage.StoreNodes, domain.AppStateID, st); err != nil {
			return fmt.Errorf("write app state: %w", err)
		}
	}
	for _, b := range s.Blobs {
		if err := storage.PutJSON(ctx, port, storage.StoreBlobs, b.ID, b); err != nil {
			return fmt.Errorf("write blob %s: %w", b.ID, err)
		}
	}
	return nil
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Decode reads and validates a snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
