package service

import (
	"context"
	"slices"

	"nestboard/internal/document"
	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

// ── Card flags ─────────────────────────────────────────────

// SetLocked pins or unpins a card anywhere in the document.
func (s *CanvasService) SetLocked(ctx context.Context, id string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.ws.Doc.FindElementGlobally(id); !ok {
		return domain.NotFoundError{Kind: "element", ID: id}
	}
	if !s.ws.Doc.SetLocked(id, locked) {
		return nil
	}
	return s.stateChanged(ctx)
}

// SetPriority marks or unmarks a card as priority.
func (s *CanvasService) SetPriority(ctx context.Context, id string, priority bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.ws.Doc.FindElementGlobally(id); !ok {
		return domain.NotFoundError{Kind: "element", ID: id}
	}
	if !s.ws.Doc.SetPriority(id, priority) {
		return nil
	}
	return s.stateChanged(ctx)
}

// PriorityCard is a priority card with the node that holds it.
type PriorityCard struct {
	NodeID  string         `json:"nodeId"`
	Element domain.Element `json:"element"`
}

// Priorities lists the priority cards that still exist.
func (s *CanvasService) Priorities() []PriorityCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PriorityCard
	for _, id := range s.ws.Doc.PriorityElements() {
		if owner, el, ok := s.ws.Doc.FindElementGlobally(id); ok {
			out = append(out, PriorityCard{NodeID: owner, Element: el})
		}
	}
	return out
}

// ── Quick links ────────────────────────────────────────────

// AddQuickLink bookmarks the current node.
func (s *CanvasService) AddQuickLink(ctx context.Context) (domain.QuickLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.ws.Doc.AddQuickLink(s.ws.Nav.CurrentID(), s.quickLinkTTL)
	if !ok {
		return domain.QuickLink{}, domain.NotFoundError{Kind: "node", ID: s.ws.Nav.CurrentID()}
	}
	return link, s.stateChanged(ctx)
}

func (s *CanvasService) RemoveQuickLink(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ws.Doc.RemoveQuickLink(nodeID) {
		return nil
	}
	return s.stateChanged(ctx)
}

func (s *CanvasService) QuickLinks() []domain.QuickLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.QuickLinks()
}

// ── Inbox, preferences, features ───────────────────────────

func (s *CanvasService) Inbox() []domain.InboxCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.Inbox()
}

func (s *CanvasService) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.Preferences()
}

func (s *CanvasService) SetPreferences(ctx context.Context, p domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.Doc.SetPreferences(p)
	return s.stateChanged(ctx)
}

func (s *CanvasService) Feature(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.Feature(name)
}

func (s *CanvasService) SetFeature(ctx context.Context, name string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.Doc.SetFeature(name, on)
	return s.stateChanged(ctx)
}

// ── Backups ────────────────────────────────────────────────

// BackupDue reports whether enough edits happened since the last backup.
func (s *CanvasService) BackupDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.NeedsBackupReminder(s.backupInterval)
}

// MarkBackedUp records a backup at the current edit counter.
func (s *CanvasService) MarkBackedUp(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.Doc.MarkBackedUp()
	return s.stateChanged(ctx)
}

// ── Blob housekeeping ──────────────────────────────────────

// GCStatus summarises the blob store.
type GCStatus struct {
	EditCounter int                      `json:"editCounter"`
	Pending     []domain.PendingDeletion `json:"pending"`
	Orphans     []string                 `json:"orphans"`
}

// GCStatus lists queued deletions and blobs nothing refers to that are not queued.
func (s *CanvasService) GCStatus(ctx context.Context) (GCStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orphans, err := s.orphans(ctx)
	if err != nil {
		return GCStatus{}, err
	}
	return GCStatus{
		EditCounter: s.ws.Doc.EditCounter(),
		Pending:     s.ws.Doc.PendingDeletions(),
		Orphans:     orphans,
	}, nil
}

// QueueOrphans schedules every orphaned blob for deferred deletion.
func (s *CanvasService) QueueOrphans(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orphans, err := s.orphans(ctx)
	if err != nil || len(orphans) == 0 {
		return 0, err
	}
	s.ws.Doc.QueueBlobs(orphans)
	if err := s.ws.Doc.Flush(ctx); err != nil {
		return 0, err
	}
	s.logger.Info().Int("count", len(orphans)).Msg("orphaned blobs queued")
	return len(orphans), nil
}

func (s *CanvasService) orphans(ctx context.Context) ([]string, error) {
	keys, err := s.ws.Doc.Port().ListKeys(ctx, storage.StoreBlobs)
	if err != nil {
		return nil, err
	}
	live := s.ws.Doc.CollectImageIDs(domain.RootID)
	for _, card := range s.ws.Doc.Inbox() {
		live = append(live, document.CardImageIDs(card)...)
	}
	var out []string
	for _, k := range keys {
		if slices.Contains(live, k) || s.ws.Doc.IsBlobQueued(k) {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func (s *CanvasService) stateChanged(ctx context.Context) error {
	if err := s.ws.Doc.Flush(ctx); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventStateChanged, nil)
	return nil
}
