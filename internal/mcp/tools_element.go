package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"nestboard/internal/domain"
	"nestboard/internal/service"
)

// Size used to find room for a new card; matches the service default.
const (
	cardWidth  = 200.0
	cardHeight = 100.0
)

func (s *Server) registerElementTools() {
	// ── list_elements ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the cards on the current node"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListElements)

	// ── add_text ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_text",
		mcp.WithDescription("Add a text card to the current node. Position is auto-calculated if not provided."),
		mcp.WithString("text", mcp.Description("Card text"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
	), s.handleAddText)

	// ── add_texts ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_texts",
		mcp.WithDescription("Add one text card per non-blank line, arranged in rows"),
		mcp.WithString("lines", mcp.Description("Newline-separated card texts"), mcp.Required()),
	), s.handleAddTexts)

	// ── add_image ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Add an image card from a data URL"),
		mcp.WithString("data", mcp.Description("Image as a data: URL"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Display width (optional)")),
		mcp.WithNumber("height", mcp.Description("Display height (optional)")),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
	), s.handleAddImage)

	// ── update_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Change a card's text, geometry or style. Blank text deletes a text card."),
		mcp.WithString("elementId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text (optional)")),
		mcp.WithNumber("x", mcp.Description("New X position (optional)")),
		mcp.WithNumber("y", mcp.Description("New Y position (optional)")),
		mcp.WithNumber("width", mcp.Description("New width (optional)")),
		mcp.WithNumber("height", mcp.Description("New height (optional)")),
		mcp.WithString("style", mcp.Description(`Style entries to merge as a JSON object, e.g. {"textColor":"red"}`)),
	), s.handleUpdateElement)

	// ── delete_element (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("Delete a card and everything nested inside it. Undoable."),
		mcp.WithString("elementId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	// ── nest_element ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("nest_element",
		mcp.WithDescription("Move a card into a sibling card on the same node. The moved card gets a new id."),
		mcp.WithString("elementId", mcp.Description("Card to move"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Sibling card to move it into"), mcp.Required()),
	), s.handleNestElement)

	// ── move_to_ancestor ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_to_ancestor",
		mcp.WithDescription("Move a card up to a node on the breadcrumb path. The moved card gets a new id."),
		mcp.WithString("elementId", mcp.Description("Card to move"), mcp.Required()),
		mcp.WithNumber("index", mcp.Description("Breadcrumb index of the destination (0 is home)"), mcp.Required()),
	), s.handleMoveToAncestor)

	// ── flags ──────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_locked",
		mcp.WithDescription("Lock or unlock a card. Locked cards cannot be moved or deleted."),
		mcp.WithString("elementId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithBoolean("locked", mcp.Description("Lock state"), mcp.Required()),
	), s.handleSetLocked)

	s.mcp.AddTool(mcp.NewTool("set_priority",
		mcp.WithDescription("Mark or unmark a card as a priority"),
		mcp.WithString("elementId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithBoolean("priority", mcp.Description("Priority state"), mcp.Required()),
	), s.handleSetPriority)

	s.mcp.AddTool(mcp.NewTool("list_priorities",
		mcp.WithDescription("List priority cards across the whole canvas"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListPriorities)
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	els := s.canvas.Elements()
	summaries := make([]elementSummary, len(els))
	for i, e := range els {
		summaries[i] = summarizeElement(e)
	}
	return jsonResult(summaries)
}

func (s *Server) handleAddText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := requireString(req, "text")
	if err != nil {
		return nil, err
	}
	x, y := s.placement(req, cardWidth, cardHeight)
	el, err := s.canvas.AddText(ctx, text, x, y)
	if err != nil {
		return nil, fmt.Errorf("add text: %w", err)
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleAddTexts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireString(req, "lines")
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyText
	}

	layout := s.grid()
	sizes := make([][2]float64, len(lines))
	for i := range sizes {
		sizes[i] = [2]float64{cardWidth, cardHeight}
	}
	startX, startY := layout.NextPosition(s.canvas.Elements(), cardWidth, cardHeight)
	positions := layout.ArrangeGroup(sizes, startX, startY)

	added := make([]elementSummary, 0, len(lines))
	for i, l := range lines {
		el, err := s.canvas.AddText(ctx, l, positions[i][0], positions[i][1])
		if err != nil {
			return nil, fmt.Errorf("add line %d: %w", i+1, err)
		}
		added = append(added, summarizeElement(el))
	}
	return jsonResult(added)
}

func (s *Server) handleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := requireString(req, "data")
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(data, "data:") {
		return nil, fmt.Errorf("data must be a data: URL")
	}
	in := service.ImageInput{
		Data:   data,
		Width:  req.GetFloat("width", 0),
		Height: req.GetFloat("height", 0),
	}
	w, h := in.Width, in.Height
	if w <= 0 {
		w = cardWidth
	}
	if h <= 0 {
		h = w
	}
	in.X, in.Y = s.placement(req, w, h)
	el, err := s.canvas.AddImage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	return jsonResult(summarizeElement(el))
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	patch, err := patchFromArgs(req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("nothing to update")
	}
	deleted, err := s.canvas.Update(ctx, id, patch, nil)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	if deleted {
		return textResult(fmt.Sprintf("Card %s was emptied and deleted", id)), nil
	}
	_, el, err := s.canvas.Find(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeElement(el))
}

// patchFromArgs builds a patch from the optional update_element arguments.
func patchFromArgs(req mcp.CallToolRequest) (domain.ElementPatch, error) {
	var patch domain.ElementPatch
	args := req.GetArguments()
	if _, ok := args["text"]; ok {
		text := req.GetString("text", "")
		patch.Text = &text
	}
	patch.X = optionalFloat(req, "x")
	patch.Y = optionalFloat(req, "y")
	patch.Width = optionalFloat(req, "width")
	patch.Height = optionalFloat(req, "height")

	if raw := req.GetString("style", ""); raw != "" {
		var style domain.Style
		if err := json.Unmarshal([]byte(raw), &style); err != nil {
			return patch, fmt.Errorf("style must be a JSON object of strings: %w", err)
		}
		for k := range style {
			if !k.Valid() {
				return patch, fmt.Errorf("unknown style key %q", k)
			}
		}
		patch.Style = style
	}
	return patch, nil
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	if err := s.canvas.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete %s: %w", id, err)
	}
	return textResult(fmt.Sprintf("Deleted card %s", id)), nil
}

func (s *Server) handleNestElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	target, err := requireString(req, "targetId")
	if err != nil {
		return nil, err
	}
	newID, err := s.canvas.Nest(ctx, id, target)
	if err != nil {
		return nil, fmt.Errorf("nest %s into %s: %w", id, target, err)
	}
	return jsonResult(map[string]string{"elementId": newID, "parentElementId": target})
}

func (s *Server) handleMoveToAncestor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	idx := req.GetInt("index", -1)
	newID, err := s.canvas.MoveUp(ctx, id, idx)
	if err != nil {
		return nil, fmt.Errorf("move %s to breadcrumb %d: %w", id, idx, err)
	}
	return jsonResult(map[string]string{"elementId": newID})
}

func (s *Server) handleSetLocked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	locked := req.GetBool("locked", false)
	if err := s.canvas.SetLocked(ctx, id, locked); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Card %s locked=%t", id, locked)), nil
}

func (s *Server) handleSetPriority(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	priority := req.GetBool("priority", false)
	if err := s.canvas.SetPriority(ctx, id, priority); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Card %s priority=%t", id, priority)), nil
}

func (s *Server) handleListPriorities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.Priorities())
}

// elementSummary is the agent-facing view of a card. Image data stays in the
// blob store; only its id is reported.
type elementSummary struct {
	ID      string             `json:"id"`
	Type    domain.ElementType `json:"type"`
	X       float64            `json:"x"`
	Y       float64            `json:"y"`
	Width   float64            `json:"width"`
	Height  float64            `json:"height"`
	Text    string             `json:"text,omitempty"`
	ImageID string             `json:"imageId,omitempty"`
	Style   domain.Style       `json:"style,omitempty"`
}

func summarizeElement(e domain.Element) elementSummary {
	return elementSummary{
		ID:      e.ID,
		Type:    e.Type,
		X:       e.X,
		Y:       e.Y,
		Width:   e.Width,
		Height:  e.Height,
		Text:    e.Text,
		ImageID: e.ImageDataID,
		Style:   e.Style,
	}
}
