package command

import (
	"context"

	"nestboard/internal/domain"
)

// relocation is the copy-forward-then-delete step shared by every move. The
// copy is persisted before the original is deleted, so an interruption leaves
// a duplicate rather than nothing.
type relocation struct {
	srcNodeID  string
	elementID  string
	destNodeID string

	copyID   string
	original *DeleteElement
	removal  *DeleteElement
}

func (r *relocation) run(ctx context.Context, ws *Workspace) (bool, error) {
	r.original = NewDeleteElement(ws, r.srcNodeID, r.elementID)
	if !r.original.Found() {
		return false, nil
	}
	cp, ok := ws.Doc.DeepCopy(r.elementID, r.srcNodeID, r.destNodeID)
	if !ok {
		return false, nil
	}
	if err := ws.Doc.InsertCopy(r.destNodeID, cp); err != nil {
		return false, err
	}
	r.copyID = cp.Element.ID
	ws.Doc.DuplicateBlobs(ctx, cp.Blobs)
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}

	ok, err := r.original.Execute(ctx, ws)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.NotFoundError{Kind: "element", ID: r.elementID}
	}
	return true, nil
}

// revert deletes the copy through the normal delete path, which queues its
// duplicated blobs, then brings the original back exactly as it was.
func (r *relocation) revert(ctx context.Context, ws *Workspace) error {
	r.removal = NewDeleteElement(ws, r.destNodeID, r.copyID)
	if _, err := r.removal.Execute(ctx, ws); err != nil {
		return err
	}
	return r.original.Undo(ctx, ws)
}

// CopyID is the id the moved card has now.
func (r *relocation) CopyID() string { return r.copyID }

// MoveIntoSibling nests a card inside another card of the same node.
type MoveIntoSibling struct {
	relocation
	targetID      string
	createdTarget bool
}

func NewMoveIntoSibling(nodeID, sourceID, targetID string) *MoveIntoSibling {
	return &MoveIntoSibling{
		relocation: relocation{srcNodeID: nodeID, elementID: sourceID, destNodeID: targetID},
		targetID:   targetID,
	}
}

func (c *MoveIntoSibling) Name() string { return "move-into" }

func (c *MoveIntoSibling) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	if c.elementID == c.targetID {
		return false, nil
	}
	if _, ok := ws.Doc.FindElementInNode(c.srcNodeID, c.elementID); !ok {
		return false, nil
	}
	dest, created, err := ws.Doc.EnsureChildNode(c.srcNodeID, c.targetID)
	if err != nil {
		return false, nil
	}
	c.createdTarget = created
	c.destNodeID = dest.ID
	return c.run(ctx, ws)
}

func (c *MoveIntoSibling) Undo(ctx context.Context, ws *Workspace) error {
	if err := c.revert(ctx, ws); err != nil {
		return err
	}
	if c.createdTarget {
		ws.Doc.RemoveChildNode(c.srcNodeID, c.targetID)
	}
	return ws.Doc.Flush(ctx)
}

// MoveToAncestor lifts a card from the current node into a node further up
// the navigation stack.
type MoveToAncestor struct {
	relocation
	found bool
}

// NewMoveToAncestor resolves the destination from the navigation stack now.
func NewMoveToAncestor(ws *Workspace, sourceID string, navIndex int) *MoveToAncestor {
	c := &MoveToAncestor{relocation: relocation{srcNodeID: ws.Nav.CurrentID(), elementID: sourceID}}
	if e, ok := ws.Nav.At(navIndex); ok {
		c.destNodeID = e.NodeID
		c.found = true
	}
	return c
}

func (c *MoveToAncestor) Name() string { return "move-to-ancestor" }

// SameLocation reports whether the destination is the node the card is in.
func (c *MoveToAncestor) SameLocation() bool { return c.destNodeID == c.srcNodeID }

func (c *MoveToAncestor) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	if !c.found || c.SameLocation() {
		return false, nil
	}
	if _, ok := ws.Doc.Node(c.destNodeID); !ok {
		return false, nil
	}
	return c.run(ctx, ws)
}

func (c *MoveToAncestor) Undo(ctx context.Context, ws *Workspace) error {
	if err := c.revert(ctx, ws); err != nil {
		return err
	}
	return ws.Doc.Flush(ctx)
}

var (
	_ Command = (*MoveIntoSibling)(nil)
	_ Command = (*MoveToAncestor)(nil)
	_ Command = (*AddElement)(nil)
	_ Command = (*UpdateElement)(nil)
	_ Command = (*DeleteElement)(nil)
)

// movedCopy exposes the copy of the last move to callers holding a Command.
type movedCopy interface{ CopyID() string }

// MovedTo returns the id a move command gave the card, if cmd is a move.
func MovedTo(cmd Command) (string, bool) {
	m, ok := cmd.(movedCopy)
	if !ok {
		return "", false
	}
	return m.CopyID(), m.CopyID() != ""
}
