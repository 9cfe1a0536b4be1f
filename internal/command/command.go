// Package command implements reversible edits of the canvas and the bounded
// undo/redo history that runs them.
package command

import (
	"context"

	"github.com/rs/zerolog"

	"nestboard/internal/document"
	"nestboard/internal/navigation"
)

// Workspace is the state a command runs against. Commands never keep
// references into it between calls; they hold ids and cloned snapshots only.
type Workspace struct {
	Doc    *document.Document
	Nav    *navigation.Stack
	Logger zerolog.Logger
}

func NewWorkspace(doc *document.Document, nav *navigation.Stack, logger zerolog.Logger) *Workspace {
	return &Workspace{Doc: doc, Nav: nav, Logger: logger}
}

// Command is one user-visible edit.
//
// Execute returns false when there was nothing to do (the target is missing or
// the edit would be a no-op); such a command is not recorded. An error means
// the edit failed part-way: it is not recorded and in-memory changes made
// before the failure are not rolled back.
type Command interface {
	Name() string
	Execute(ctx context.Context, ws *Workspace) (bool, error)
	Undo(ctx context.Context, ws *Workspace) error
}

// refreshTitle propagates an element's text to the node nested under it and
// to any breadcrumb showing that node.
func (ws *Workspace) refreshTitle(nodeID, elementID string) {
	title, ok := ws.Doc.RefreshChildTitle(nodeID, elementID)
	if ok && ws.Nav != nil {
		ws.Nav.RefreshTitle(elementID, title)
	}
}
