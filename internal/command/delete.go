package command

import (
	"context"
	"slices"

	"nestboard/internal/document"
	"nestboard/internal/domain"
)

// DeleteElement removes a card and everything nested under it. The card and
// its nested nodes are captured when the command is built; blobs are backed
// up when it executes.
type DeleteElement struct {
	nodeID string
	id     string

	found   bool
	element domain.Element
	index   int
	nodes   []domain.Node
	blobIDs []string
	backup  map[string]domain.Blob
	dropped document.DeleteResult
}

// NewDeleteElement captures the element as it is now. A missing element
// yields a command whose Execute reports no change.
func NewDeleteElement(ws *Workspace, nodeID, id string) *DeleteElement {
	c := &DeleteElement{nodeID: nodeID, id: id}
	n, ok := ws.Doc.Node(nodeID)
	if !ok {
		return c
	}
	i := n.IndexOf(id)
	if i < 0 {
		return c
	}
	c.found = true
	c.element = n.Elements[i].Clone()
	c.index = i
	c.nodes = ws.Doc.ElementSubtree(nodeID, id)
	c.blobIDs = ws.Doc.ElementImageIDs(nodeID, id)
	return c
}

func (c *DeleteElement) Name() string { return "delete" }

// ElementID is the id of the deleted card.
func (c *DeleteElement) ElementID() string { return c.id }

// Found reports whether the element existed when the command was built.
func (c *DeleteElement) Found() bool { return c.found }

// BlobBackup returns the blobs saved by the last execution.
func (c *DeleteElement) BlobBackup() map[string]domain.Blob { return c.backup }

func (c *DeleteElement) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	if !c.found {
		return false, nil
	}
	if _, ok := ws.Doc.FindElementInNode(c.nodeID, c.id); !ok {
		return false, nil
	}
	c.backup = ws.Doc.BackupBlobs(ctx, c.blobIDs)

	res, ok := ws.Doc.DeleteElement(c.nodeID, c.id)
	if !ok {
		return false, nil
	}
	c.index = res.Index
	c.dropped = res
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DeleteElement) Undo(ctx context.Context, ws *Workspace) error {
	if !c.found {
		return nil
	}
	// already back when a previous undo restored it but failed to persist
	if _, ok := ws.Doc.FindElementInNode(c.nodeID, c.id); !ok {
		if err := ws.Doc.RestoreElement(c.nodeID, c.element, c.index, c.nodes); err != nil {
			return err
		}
	}
	ws.Doc.RestoreState(c.dropped)
	ws.Doc.RestoreBlobs(ctx, c.backup)
	// live again: a later sweep must not take them
	ids := slices.Clone(c.blobIDs)
	for id := range c.backup {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	ws.Doc.UnqueueBlobs(ids)
	return ws.Doc.Flush(ctx)
}
