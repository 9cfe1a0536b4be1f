package command

import (
	"context"

	"nestboard/internal/document"
	"nestboard/internal/domain"
)

// UpdateElement changes some properties of a card. When the change would leave
// a text card blank, the card is deleted instead and undo restores it.
type UpdateElement struct {
	nodeID string
	id     string
	patch  domain.ElementPatch
	old    domain.ElementPatch
	found  bool
	before domain.Element

	deletion *DeleteElement
}

// NewUpdateElement captures the current values of the patched fields. A caller
// that already knows them (for instance after a resize gesture) passes old.
func NewUpdateElement(ws *Workspace, nodeID, id string, patch domain.ElementPatch, old *domain.ElementPatch) *UpdateElement {
	c := &UpdateElement{nodeID: nodeID, id: id, patch: patch.Clone()}
	el, ok := ws.Doc.FindElementInNode(nodeID, id)
	if !ok {
		return c
	}
	c.found = true
	c.before = el.Clone()
	if old != nil {
		c.old = old.Clone()
	} else {
		c.old = patch.Inverse(el)
	}
	return c
}

func (c *UpdateElement) Name() string { return "update" }

// Deleted reports whether the last execution turned into a delete.
func (c *UpdateElement) Deleted() bool { return c.deletion != nil }

func (c *UpdateElement) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	if !c.found || c.patch.IsEmpty() {
		return false, nil
	}
	el, ok := ws.Doc.FindElementInNode(c.nodeID, c.id)
	if !ok {
		return false, nil
	}

	c.deletion = nil
	if c.patch.Apply(el).IsBlank() {
		del := NewDeleteElement(ws, c.nodeID, c.id)
		ok, err := del.Execute(ctx, ws)
		if err != nil || !ok {
			return ok, err
		}
		c.deletion = del
		return true, nil
	}

	if ws.Doc.UpdateElement(c.nodeID, c.id, c.patch) != document.Updated {
		return false, nil
	}
	c.swapImage(ws, c.patch, c.old)
	if c.patch.Text != nil {
		ws.refreshTitle(c.nodeID, c.id)
	}
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *UpdateElement) Undo(ctx context.Context, ws *Workspace) error {
	if c.deletion != nil {
		return c.deletion.Undo(ctx, ws)
	}
	if !c.found {
		return nil
	}
	if ws.Doc.UpdateElement(c.nodeID, c.id, c.old) != document.Updated {
		return domain.NotFoundError{Kind: "element", ID: c.id}
	}
	c.swapImage(ws, c.old, c.patch)
	if c.old.Text != nil {
		ws.refreshTitle(c.nodeID, c.id)
	}
	return ws.Doc.Flush(ctx)
}

// swapImage keeps the deletion queue in step when an image card changes blob:
// the blob being replaced is queued, the one coming in is live.
func (c *UpdateElement) swapImage(ws *Workspace, in, out domain.ElementPatch) {
	if !c.before.IsImage() || in.ImageDataID == nil || out.ImageDataID == nil {
		return
	}
	if *in.ImageDataID == *out.ImageDataID {
		return
	}
	ws.Doc.UnqueueBlobs([]string{*in.ImageDataID})
	ws.Doc.QueueBlobs([]string{*out.ImageDataID})
}
