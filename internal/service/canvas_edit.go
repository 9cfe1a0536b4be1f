package service

import (
	"context"
	"strings"

	"nestboard/internal/command"
	"nestboard/internal/domain"
)

// Default size of a card created without explicit dimensions.
const (
	defaultCardWidth  = 200.0
	defaultCardHeight = 100.0
)

// ── Edits ──────────────────────────────────────────────────
//
// Every edit runs through the history so it can be undone. Preconditions the
// commands treat as silent no-ops (locked cards, moving into self) are
// checked here first and reported as errors.

// AddText places a text card on the current node.
func (s *CanvasService) AddText(ctx context.Context, text string, x, y float64) (domain.Element, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Element{}, domain.ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	el := domain.Element{
		ID:       s.ws.Doc.NewID(),
		Type:     domain.ElementTypeText,
		X:        x,
		Y:        y,
		Width:    defaultCardWidth,
		Height:   defaultCardHeight,
		Text:     text,
		AutoSize: true,
	}
	if _, err := s.run(ctx, command.NewAddElement(s.ws.Nav.CurrentID(), el, nil)); err != nil {
		return domain.Element{}, err
	}
	return el, nil
}

// ImageInput describes an image card to add. Data is a data URL.
type ImageInput struct {
	Data          string
	X, Y          float64
	Width, Height float64
	StorageWidth  int
	StorageHeight int
}

// AddImage stores the image blob and places an image card on the current node.
func (s *CanvasService) AddImage(ctx context.Context, in ImageInput) (domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Width <= 0 {
		in.Width = defaultCardWidth
	}
	if in.Height <= 0 {
		in.Height = in.Width
	}
	el := domain.Element{
		ID:            s.ws.Doc.NewID(),
		Type:          domain.ElementTypeImage,
		X:             in.X,
		Y:             in.Y,
		Width:         in.Width,
		Height:        in.Height,
		ImageDataID:   s.ws.Doc.NewID(),
		StorageWidth:  in.StorageWidth,
		StorageHeight: in.StorageHeight,
	}
	blob := &domain.Blob{ID: el.ImageDataID, Data: in.Data}
	if _, err := s.run(ctx, command.NewAddElement(s.ws.Nav.CurrentID(), el, blob)); err != nil {
		return domain.Element{}, err
	}
	return el, nil
}

// Update patches a card of the current node. old carries the previous values
// when the caller already applied the change live (a drag or resize); pass
// nil otherwise. It reports whether the update deleted a card left blank.
func (s *CanvasService) Update(ctx context.Context, id string, patch domain.ElementPatch, old *domain.ElementPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.ws.Nav.CurrentID()
	if _, ok := s.ws.Doc.FindElementInNode(cur, id); !ok {
		return false, domain.NotFoundError{Kind: "element", ID: id}
	}
	cmd := command.NewUpdateElement(s.ws, cur, id, patch, old)
	if _, err := s.run(ctx, cmd); err != nil {
		return false, err
	}
	return cmd.Deleted(), nil
}

// Delete removes a card of the current node with everything nested in it.
func (s *CanvasService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.ws.Nav.CurrentID()
	if err := s.movable(cur, id); err != nil {
		return err
	}
	_, err := s.run(ctx, command.NewDeleteElement(s.ws, cur, id))
	return err
}

// Nest moves a card inside another card of the current node. It returns the
// id the card has after the move.
func (s *CanvasService) Nest(ctx context.Context, sourceID, targetID string) (string, error) {
	if sourceID == targetID {
		return "", domain.ErrIntoSelf
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.ws.Nav.CurrentID()
	if err := s.movable(cur, sourceID); err != nil {
		return "", err
	}
	if _, ok := s.ws.Doc.FindElementInNode(cur, targetID); !ok {
		return "", domain.NotFoundError{Kind: "element", ID: targetID}
	}
	cmd := command.NewMoveIntoSibling(cur, sourceID, targetID)
	if _, err := s.run(ctx, cmd); err != nil {
		return "", err
	}
	return cmd.CopyID(), nil
}

// MoveUp moves a card of the current node to the breadcrumb at navIndex.
func (s *CanvasService) MoveUp(ctx context.Context, sourceID string, navIndex int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.ws.Nav.CurrentID()
	if _, ok := s.ws.Nav.At(navIndex); !ok {
		return "", domain.NotFoundError{Kind: "breadcrumb", ID: cur}
	}
	if err := s.movable(cur, sourceID); err != nil {
		return "", err
	}
	cmd := command.NewMoveToAncestor(s.ws, sourceID, navIndex)
	if cmd.SameLocation() {
		return "", domain.ErrSameLocation
	}
	if _, err := s.run(ctx, cmd); err != nil {
		return "", err
	}
	return cmd.CopyID(), nil
}

// ToInbox parks a card of the current node in the inbox and returns the card id.
func (s *CanvasService) ToInbox(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.ws.Nav.CurrentID()
	if err := s.movable(cur, id); err != nil {
		return "", err
	}
	cmd := command.NewMoveToInbox(cur, id)
	if _, err := s.run(ctx, cmd); err != nil {
		return "", err
	}
	s.emitter.Emit(ctx, EventInboxChanged, len(s.ws.Doc.Inbox()))
	return cmd.CardID(), nil
}

// PlaceFromInbox puts an inbox card on the current node. A nil coordinate
// keeps the card's old position.
func (s *CanvasService) PlaceFromInbox(ctx context.Context, cardID string, x, y *float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ws.Doc.InboxCard(cardID); !ok {
		return "", domain.NotFoundError{Kind: "inbox card", ID: cardID}
	}
	cmd := command.NewPlaceFromInbox(cardID, s.ws.Nav.CurrentID(), x, y)
	if _, err := s.run(ctx, cmd); err != nil {
		return "", err
	}
	s.emitter.Emit(ctx, EventInboxChanged, len(s.ws.Doc.Inbox()))
	return cmd.CopyID(), nil
}

// Undo reverses the last edit and returns its name.
func (s *CanvasService) Undo(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd, err := s.history.Undo(ctx, s.ws)
	if cmd == nil {
		return "", err
	}
	if err == nil {
		s.changed(ctx, cmd.Name())
	}
	return cmd.Name(), err
}

// Redo re-applies the last undone edit and returns its name.
func (s *CanvasService) Redo(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd, err := s.history.Redo(ctx, s.ws)
	if cmd == nil {
		return "", err
	}
	if err == nil {
		s.changed(ctx, cmd.Name())
	}
	return cmd.Name(), err
}

// run executes cmd through the history. A command that changes nothing is
// reported as ErrNotApplied so callers never mistake it for success.
func (s *CanvasService) run(ctx context.Context, cmd command.Command) (bool, error) {
	ok, err := s.history.Execute(ctx, s.ws, cmd)
	if ok {
		s.changed(ctx, cmd.Name())
	}
	if err != nil {
		return ok, err
	}
	if !ok {
		return false, domain.ErrNotApplied
	}
	return true, nil
}

// movable checks that a card exists in the node and is not locked.
func (s *CanvasService) movable(nodeID, id string) error {
	if _, ok := s.ws.Doc.FindElementInNode(nodeID, id); !ok {
		return domain.NotFoundError{Kind: "element", ID: id}
	}
	if s.ws.Doc.IsLocked(id) {
		return domain.ErrLocked
	}
	return nil
}

func (s *CanvasService) changed(ctx context.Context, name string) {
	s.emitter.Emit(ctx, EventCanvasChanged, map[string]any{
		"command": name,
		"nodeId":  s.ws.Nav.CurrentID(),
		"counter": s.ws.Doc.EditCounter(),
	})
}
