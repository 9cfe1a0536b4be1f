package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"nestboard/internal/domain"
)

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit"),
	), s.handleRedo)

	// ── inbox ──────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_to_inbox",
		mcp.WithDescription("Take a card off the canvas and park it in the inbox, nested content included"),
		mcp.WithString("elementId", mcp.Description("Card ID"), mcp.Required()),
	), s.handleMoveToInbox)

	s.mcp.AddTool(mcp.NewTool("place_from_inbox",
		mcp.WithDescription("Place an inbox card on the current node"),
		mcp.WithString("cardId", mcp.Description("Inbox card ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
	), s.handlePlaceFromInbox)

	s.mcp.AddTool(mcp.NewTool("list_inbox",
		mcp.WithDescription("List cards waiting in the inbox"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListInbox)

	s.mcp.AddTool(mcp.NewTool("gc_status",
		mcp.WithDescription("Show the edit counter, blobs queued for deletion and unreferenced blobs"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGCStatus)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.canvas.Undo(ctx)
	if errors.Is(err, domain.ErrNothingToUndo) {
		return textResult("Nothing to undo"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	return textResult("Undid " + name), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := s.canvas.Redo(ctx)
	if errors.Is(err, domain.ErrNothingToRedo) {
		return textResult("Nothing to redo"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redo: %w", err)
	}
	return textResult("Redid " + name), nil
}

func (s *Server) handleMoveToInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	cardID, err := s.canvas.ToInbox(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("move %s to inbox: %w", id, err)
	}
	return jsonResult(map[string]string{"cardId": cardID})
}

func (s *Server) handlePlaceFromInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := requireString(req, "cardId")
	if err != nil {
		return nil, err
	}
	x, y := optionalFloat(req, "x"), optionalFloat(req, "y")
	if x == nil || y == nil {
		for _, c := range s.canvas.Inbox() {
			if c.ID == cardID {
				px, py := s.grid().NextPosition(s.canvas.Elements(), c.Element.Width, c.Element.Height)
				x, y = &px, &py
				break
			}
		}
	}
	newID, err := s.canvas.PlaceFromInbox(ctx, cardID, x, y)
	if err != nil {
		return nil, fmt.Errorf("place %s: %w", cardID, err)
	}
	return jsonResult(map[string]string{"elementId": newID})
}

func (s *Server) handleListInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type inboxSummary struct {
		ID      string         `json:"id"`
		Card    elementSummary `json:"card"`
		Nested  int            `json:"nestedNodes"`
		AddedAt string         `json:"addedAt"`
	}
	cards := s.canvas.Inbox()
	out := make([]inboxSummary, len(cards))
	for i, c := range cards {
		out[i] = inboxSummary{
			ID:      c.ID,
			Card:    summarizeElement(c.Element),
			Nested:  len(c.Nodes),
			AddedAt: c.CreatedAt.Format("2006-01-02 15:04"),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleGCStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.canvas.GCStatus(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(st)
}
