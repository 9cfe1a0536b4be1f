package command

import (
	"context"
	"time"

	"nestboard/internal/document"
	"nestboard/internal/domain"
)

// MoveToInbox detaches a card, with its nested content, into the inbox. The
// inbox card owns the blobs from then on, so they leave the deletion queue.
type MoveToInbox struct {
	nodeID    string
	elementID string
	cardID    string
	now       func() time.Time

	original *DeleteElement
}

func NewMoveToInbox(nodeID, elementID string) *MoveToInbox {
	return &MoveToInbox{nodeID: nodeID, elementID: elementID, now: time.Now}
}

func (c *MoveToInbox) Name() string { return "move-to-inbox" }

// CardID is the id of the inbox card created by the last execution.
func (c *MoveToInbox) CardID() string { return c.cardID }

func (c *MoveToInbox) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	el, ok := ws.Doc.FindElementInNode(c.nodeID, c.elementID)
	if !ok {
		return false, nil
	}
	if c.cardID == "" {
		c.cardID = ws.Doc.NewID()
	}
	card := domain.InboxCard{
		ID:         c.cardID,
		OriginalID: el.ID,
		Element:    el.Clone(),
		Nodes:      ws.Doc.ElementSubtree(c.nodeID, c.elementID),
		CreatedAt:  c.now().UTC(),
	}

	c.original = NewDeleteElement(ws, c.nodeID, c.elementID)
	ws.Doc.InsertInboxCard(card, -1)

	ok, err := c.original.Execute(ctx, ws)
	if _, onCanvas := ws.Doc.FindElementInNode(c.nodeID, c.elementID); onCanvas {
		ws.Doc.RemoveInboxCard(card.ID)
		return false, err
	}
	// the original is gone from memory, so the card is now the only copy
	ws.Doc.UnqueueBlobs(document.CardImageIDs(card))
	if err != nil || !ok {
		return false, err
	}
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MoveToInbox) Undo(ctx context.Context, ws *Workspace) error {
	ws.Doc.RemoveInboxCard(c.cardID)
	if err := c.original.Undo(ctx, ws); err != nil {
		return err
	}
	return ws.Doc.Flush(ctx)
}

// PlaceFromInbox puts an inbox card back on a node as a fresh copy and
// removes the card. The card's own blobs become orphans and are queued.
type PlaceFromInbox struct {
	cardID string
	nodeID string
	x, y   *float64

	card    domain.InboxCard
	index   int
	copyID  string
	removal *DeleteElement
}

// NewPlaceFromInbox places the card at (x, y) when given, or at its old position.
func NewPlaceFromInbox(cardID, nodeID string, x, y *float64) *PlaceFromInbox {
	return &PlaceFromInbox{cardID: cardID, nodeID: nodeID, x: x, y: y}
}

func (c *PlaceFromInbox) Name() string { return "place-from-inbox" }

func (c *PlaceFromInbox) CopyID() string { return c.copyID }

func (c *PlaceFromInbox) Execute(ctx context.Context, ws *Workspace) (bool, error) {
	card, ok := ws.Doc.InboxCard(c.cardID)
	if !ok {
		return false, nil
	}
	if _, ok := ws.Doc.Node(c.nodeID); !ok {
		return false, nil
	}

	cp := ws.Doc.CopyCard(card, c.nodeID)
	if c.x != nil {
		cp.Element.X = *c.x
	}
	if c.y != nil {
		cp.Element.Y = *c.y
	}
	if err := ws.Doc.InsertCopy(c.nodeID, cp); err != nil {
		return false, err
	}
	c.copyID = cp.Element.ID
	ws.Doc.DuplicateBlobs(ctx, cp.Blobs)
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}

	c.card, c.index, _ = ws.Doc.RemoveInboxCard(c.cardID)
	ws.Doc.QueueBlobs(document.CardImageIDs(c.card))
	if err := ws.Doc.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *PlaceFromInbox) Undo(ctx context.Context, ws *Workspace) error {
	c.removal = NewDeleteElement(ws, c.nodeID, c.copyID)
	if _, err := c.removal.Execute(ctx, ws); err != nil {
		return err
	}
	ws.Doc.InsertInboxCard(c.card, c.index)
	ws.Doc.UnqueueBlobs(document.CardImageIDs(c.card))
	return ws.Doc.Flush(ctx)
}

var (
	_ Command = (*MoveToInbox)(nil)
	_ Command = (*PlaceFromInbox)(nil)
)
