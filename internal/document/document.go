// Package document holds the in-memory canvas tree: an arena of nodes keyed by
// id, the AppState singleton, and the persistence bookkeeping that goes with them.
package document

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nestboard/internal/blobgc"
	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

const defaultBlobWorkers = 4

// Document is the arena of nodes plus AppState. It is not safe for concurrent
// use; callers serialise commands.
type Document struct {
	nodes map[string]*domain.Node
	state *domain.AppState

	port    storage.Port
	gc      *blobgc.Queue
	gcDelay int
	logger  zerolog.Logger
	newID   func() string

	blobWorkers int

	dirty      map[string]struct{}
	removed    map[string]struct{}
	stateDirty bool
}

type Option func(*Document)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// WithGCDelay sets how many edits an orphaned blob survives.
func WithGCDelay(delay int) Option {
	return func(d *Document) { d.gcDelay = delay }
}

// WithIDGenerator replaces the random id source. Tests use it for stable ids.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) { d.newID = fn }
}

// WithBlobWorkers bounds the concurrency of blob batches.
func WithBlobWorkers(n int) Option {
	return func(d *Document) {
		if n > 0 {
			d.blobWorkers = n
		}
	}
}

// New returns a document holding only an empty root node.
func New(port storage.Port, opts ...Option) *Document {
	d := &Document{
		port:        port,
		logger:      zerolog.Nop(),
		newID:       uuid.NewString,
		blobWorkers: defaultBlobWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.gc = blobgc.New(d.gcDelay, d.logger)
	d.reset()
	return d
}

func (d *Document) reset() {
	d.nodes = map[string]*domain.Node{domain.RootID: domain.NewNode(domain.RootID, "", "Home")}
	d.state = domain.NewAppState()
	d.dirty = map[string]struct{}{}
	d.removed = map[string]struct{}{}
	d.stateDirty = false
}

// Port returns the persistence backend.
func (d *Document) Port() storage.Port { return d.port }

func (d *Document) Logger() zerolog.Logger { return d.logger }

// NewID mints a fresh identifier.
func (d *Document) NewID() string { return d.newID() }

// GCDelay is the deferred deletion window in edits.
func (d *Document) GCDelay() int { return d.gc.Delay() }

// Root returns the permanent top-level node.
func (d *Document) Root() *domain.Node { return d.nodes[domain.RootID] }

// Node returns the node with the given id.
func (d *Document) Node(id string) (*domain.Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodeCount is the number of nodes in the arena, root included.
func (d *Document) NodeCount() int { return len(d.nodes) }

// State returns the live AppState. Callers must not mutate it directly.
func (d *Document) State() *domain.AppState { return d.state }

// EditCounter is the current value of the logical edit clock.
func (d *Document) EditCounter() int { return d.state.EditCounter }

func (d *Document) markDirty(id string) {
	d.dirty[id] = struct{}{}
	delete(d.removed, id)
}

func (d *Document) markRemoved(id string) {
	d.removed[id] = struct{}{}
	delete(d.dirty, id)
}

func (d *Document) markState() { d.stateDirty = true }

// Dirty reports whether there are unsaved changes.
func (d *Document) Dirty() bool {
	return d.stateDirty || len(d.dirty) > 0 || len(d.removed) > 0
}
