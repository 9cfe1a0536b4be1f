package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nestboard/internal/command"
	"nestboard/internal/document"
	"nestboard/internal/domain"
	"nestboard/internal/navigation"
	"nestboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Canvas Service: the application context around one document
// ─────────────────────────────────────────────────────────────

// Options tunes a CanvasService. Zero values pick the defaults.
type Options struct {
	HistoryLimit   int
	QuickLinkTTL   int
	BackupInterval int
}

// CanvasService threads the document, the navigation stack and the undo
// history through every user operation. It is safe for concurrent use;
// operations are serialised.
type CanvasService struct {
	mu      sync.Mutex
	ws      *command.Workspace
	history *command.History
	emitter EventEmitter
	logger  zerolog.Logger
	jobs    jobGate

	quickLinkTTL   int
	backupInterval int
}

// NewCanvasService creates a CanvasService over doc. Call Load before use.
func NewCanvasService(doc *document.Document, emitter EventEmitter, logger zerolog.Logger, opts Options) *CanvasService {
	if emitter == nil {
		emitter = LogEmitter{Logger: logger}
	}
	if opts.BackupInterval <= 0 {
		opts.BackupInterval = 100
	}
	return &CanvasService{
		ws:             command.NewWorkspace(doc, navigation.NewStack(logger), logger),
		history:        command.NewHistory(opts.HistoryLimit, logger),
		emitter:        emitter,
		logger:         logger,
		quickLinkTTL:   opts.QuickLinkTTL,
		backupInterval: opts.BackupInterval,
	}
}

// Location is what the user is looking at.
type Location struct {
	Path    []navigation.Entry `json:"path"`
	Node    domain.Node        `json:"node"`
	Link    string             `json:"link"`
	CanUndo bool               `json:"canUndo"`
	CanRedo bool               `json:"canRedo"`
}

// OutlineItem is one line of the node tree.
type OutlineItem struct {
	Depth    int    `json:"depth"`
	NodeID   string `json:"nodeId"`
	Title    string `json:"title"`
	Elements int    `json:"elements"`
}

// ── Lifecycle ──────────────────────────────────────────────

// Load reads the document from storage and resets navigation and history.
func (s *CanvasService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *CanvasService) load(ctx context.Context) error {
	if err := s.ws.Doc.Load(ctx); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.ws.Nav.Reset()
	s.history.Clear()
	s.logger.Info().Int("nodes", s.ws.Doc.NodeCount()).Int("editCounter", s.ws.Doc.EditCounter()).Msg("document loaded")
	s.emitter.Emit(ctx, EventReloaded, map[string]any{"nodes": s.ws.Doc.NodeCount()})
	return nil
}

// RunJob runs fn unless a job with the same name is already running.
// It reports whether fn ran.
func (s *CanvasService) RunJob(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	if since, ok := s.jobs.enter(name, time.Now()); !ok {
		s.logger.Debug().Str("job", name).Dur("runningFor", time.Since(since)).Msg("job already running, skipped")
		return false, nil
	}
	defer s.jobs.leave(name)
	return true, fn(ctx)
}

// Snapshot flushes pending writes and hands the storage port to fn while
// edits are held off, so fn sees a consistent document.
func (s *CanvasService) Snapshot(ctx context.Context, fn func(ctx context.Context, port storage.Port) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.Doc.Flush(ctx); err != nil {
		return err
	}
	return fn(ctx, s.ws.Doc.Port())
}

// Replace lets fn rewrite storage wholesale, then reloads from it.
func (s *CanvasService) Replace(ctx context.Context, fn func(ctx context.Context, port storage.Port) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(ctx, s.ws.Doc.Port()); err != nil {
		return err
	}
	return s.load(ctx)
}

// Close waits for background jobs and writes anything still pending.
func (s *CanvasService) Close(ctx context.Context) error {
	if !s.jobs.drain(ctx) {
		s.logger.Warn().Msg("closing with background jobs still running")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Doc.Flush(ctx)
}

// ── Reading ────────────────────────────────────────────────

// Location returns the current breadcrumb and node.
func (s *CanvasService) Location() Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location()
}

func (s *CanvasService) location() Location {
	cur := s.ws.Nav.CurrentID()
	loc := Location{
		Path:    s.ws.Nav.Entries(),
		Link:    navigation.Encode(s.ws.Doc, cur),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
	if n, ok := s.ws.Doc.Node(cur); ok {
		loc.Node = *n.Clone()
	}
	return loc
}

// Node returns a copy of any node.
func (s *CanvasService) Node(id string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ws.Doc.Node(id)
	if !ok {
		return domain.Node{}, domain.NotFoundError{Kind: "node", ID: id}
	}
	return *n.Clone(), nil
}

// Elements lists the cards of the current node.
func (s *CanvasService) Elements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ws.Doc.Node(s.ws.Nav.CurrentID())
	if !ok {
		return nil
	}
	return n.Clone().Elements
}

// Find locates a card anywhere in the document and returns the node holding it.
func (s *CanvasService) Find(elementID string) (string, domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, el, ok := s.ws.Doc.FindElementGlobally(elementID)
	if !ok {
		return "", domain.Element{}, domain.NotFoundError{Kind: "element", ID: elementID}
	}
	return owner, el, nil
}

// Outline lists every node depth-first with its nesting depth.
func (s *CanvasService) Outline() []OutlineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	depth := map[string]int{}
	var out []OutlineItem
	s.ws.Doc.Walk(domain.RootID, func(n *domain.Node) {
		d := 0
		if n.ParentID != "" {
			d = depth[n.ParentID] + 1
		}
		depth[n.ID] = d
		out = append(out, OutlineItem{Depth: d, NodeID: n.ID, Title: n.Title, Elements: len(n.Elements)})
	})
	return out
}

// BlobData returns the stored data URL of an image blob.
func (s *CanvasService) BlobData(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok, err := s.ws.Doc.Blob(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.NotFoundError{Kind: "blob", ID: id}
	}
	return b.Data, nil
}

// ── Navigation ─────────────────────────────────────────────

// Enter descends into a card of the current node.
func (s *CanvasService) Enter(ctx context.Context, elementID string) (navigation.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.ws.Nav.Enter(s.ws.Doc, elementID)
	if err != nil {
		return navigation.Entry{}, err
	}
	if err := s.ws.Doc.Flush(ctx); err != nil {
		return e, err
	}
	s.navigated(ctx)
	return e, nil
}

// Back goes up one level. It reports false at root.
func (s *CanvasService) Back(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ws.Nav.Back() {
		return false
	}
	s.navigated(ctx)
	return true
}

// GoTo jumps to a breadcrumb.
func (s *CanvasService) GoTo(ctx context.Context, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ws.Nav.ToIndex(index) {
		return false
	}
	s.navigated(ctx)
	return true
}

// NavigateTo makes any node current. An unknown node leaves the user at root.
func (s *CanvasService) NavigateTo(ctx context.Context, nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.ws.Nav.ToNode(s.ws.Doc, nodeID)
	s.navigated(ctx)
	return ok
}

// Reveal navigates to the node that holds a card.
func (s *CanvasService) Reveal(ctx context.Context, elementID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ws.Nav.ToParentOf(s.ws.Doc, elementID) {
		return false
	}
	s.navigated(ctx)
	return true
}

// Link is the deep-link hash of the current node.
func (s *CanvasService) Link() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return navigation.Encode(s.ws.Doc, s.ws.Nav.CurrentID())
}

// OpenLink navigates to the node a deep-link hash names. Unresolvable links
// land on root and report false.
func (s *CanvasService) OpenLink(ctx context.Context, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := navigation.Decode(s.ws.Doc, hash)
	if !ok {
		s.logger.Debug().Str("hash", hash).Msg("deep link did not resolve")
	}
	if !s.ws.Nav.ToNode(s.ws.Doc, id) {
		ok = false
	}
	s.navigated(ctx)
	return ok
}

func (s *CanvasService) navigated(ctx context.Context) {
	s.emitter.Emit(ctx, EventNavigated, s.ws.Nav.Entries())
}
