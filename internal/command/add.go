package command

import (
	"context"

	"nestboard/internal/domain"
)

// AddElement places a new card on a node. An image card may carry its blob,
// which is written before the card is inserted.
type AddElement struct {
	nodeID  string
	element domain.Element
	blob    *domain.Blob

	// set by Undo; redo restores through it so nested content comes back too
	removal *DeleteElement
}

func NewAddElement(nodeID string, el domain.Element, blob *domain.Blob) *AddElement {
	c := &AddElement{nodeID: nodeID, element: el.Clone()}
	if blob != nil {
		b := *blob
		if b.ID == "" {
			b.ID = el.ImageDataID
		}
		c.blob = &b
	}
	return c
}

func (c *AddElement) Name() string { return "add" }

// ElementID is the id of the added card.
func (c *AddElement) ElementID() string { return c.element.ID }

func (c *AddElement) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	if c.removal != nil {
		if err := c.removal.Undo(ctx, ws); err != nil {
			return false, err
		}
		c.removal = nil
		return true, nil
	}

	if _, ok := ws.Doc.Node(c.nodeID); !ok {
		return false, nil
	}
	if _, ok := ws.Doc.FindElementInNode(c.nodeID, c.element.ID); ok {
		return false, nil
	}
	if c.element.IsBlank() {
		return false, nil
	}
	if c.blob != nil {
		if err := ws.Doc.SaveBlob(ctx, *c.blob); err != nil {
			return false, err
		}
	}
	if err := ws.Doc.AddElement(c.nodeID, c.element); err != nil {
		return false, err
	}
	if c.element.IsImage() {
		ws.Doc.UnqueueBlobs([]string{c.element.ImageDataID})
	}
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Undo deletes the card through the regular delete path so its blob is
// queued like any other.
func (c *AddElement) Undo(ctx context.Context, ws *Workspace) error {
	del := NewDeleteElement(ws, c.nodeID, c.element.ID)
	ok, err := del.Execute(ctx, ws)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundError{Kind: "element", ID: c.element.ID}
	}
	c.removal = del
	return nil
}
