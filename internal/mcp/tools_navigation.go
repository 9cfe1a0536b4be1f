package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNavigationTools() {
	// ── get_location ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_location",
		mcp.WithDescription("Show the current node: breadcrumb path, its cards, deep link and undo/redo availability"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetLocation)

	// ── get_outline ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("List every node of the canvas as an indented tree"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetOutline)

	// ── enter_element ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("enter_element",
		mcp.WithDescription("Open a card on the current node, descending into its nested canvas"),
		mcp.WithString("elementId", mcp.Description("ID of the card to open"), mcp.Required()),
	), s.handleEnterElement)

	// ── go_back ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Return to the parent node"),
	), s.handleGoBack)

	// ── go_to ──────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("go_to",
		mcp.WithDescription("Jump to a breadcrumb by its index in the path (0 is home)"),
		mcp.WithNumber("index", mcp.Description("Breadcrumb index"), mcp.Required()),
	), s.handleGoTo)

	// ── navigate ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Open any node by id, rebuilding the breadcrumb path from home"),
		mcp.WithString("nodeId", mcp.Description("ID of the node"), mcp.Required()),
	), s.handleNavigate)

	// ── reveal_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reveal_element",
		mcp.WithDescription("Open the node that contains a card"),
		mcp.WithString("elementId", mcp.Description("ID of the card"), mcp.Required()),
	), s.handleRevealElement)

	// ── open_link ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_link",
		mcp.WithDescription("Open a deep link such as #project-plan-3f2a1b"),
		mcp.WithString("link", mcp.Description("Deep link hash"), mcp.Required()),
	), s.handleOpenLink)

	// ── quick links ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_quick_link",
		mcp.WithDescription("Bookmark the current node for a limited number of edits"),
	), s.handleAddQuickLink)

	s.mcp.AddTool(mcp.NewTool("list_quick_links",
		mcp.WithDescription("List live quick links"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListQuickLinks)
}

func (s *Server) handleGetLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.Location())
}

func (s *Server) handleGetOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.Outline())
}

func (s *Server) handleEnterElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	entry, err := s.canvas.Enter(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("enter %s: %w", id, err)
	}
	return jsonResult(entry)
}

func (s *Server) handleGoBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.canvas.Back(ctx) {
		return textResult("Already at home"), nil
	}
	return jsonResult(s.canvas.Location().Path)
}

func (s *Server) handleGoTo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx := req.GetInt("index", -1)
	if !s.canvas.GoTo(ctx, idx) {
		return nil, fmt.Errorf("no breadcrumb at index %d", idx)
	}
	return jsonResult(s.canvas.Location().Path)
}

func (s *Server) handleNavigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "nodeId")
	if err != nil {
		return nil, err
	}
	if !s.canvas.NavigateTo(ctx, id) {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return jsonResult(s.canvas.Location().Path)
}

func (s *Server) handleRevealElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	if !s.canvas.Reveal(ctx, id) {
		return nil, fmt.Errorf("card %s not found", id)
	}
	return jsonResult(s.canvas.Location().Path)
}

func (s *Server) handleOpenLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := requireString(req, "link")
	if err != nil {
		return nil, err
	}
	if !s.canvas.OpenLink(ctx, link) {
		return nil, fmt.Errorf("link %s does not resolve", link)
	}
	return jsonResult(s.canvas.Location().Path)
}

func (s *Server) handleAddQuickLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ql, err := s.canvas.AddQuickLink(ctx)
	if err != nil {
		return nil, fmt.Errorf("add quick link: %w", err)
	}
	return jsonResult(ql)
}

func (s *Server) handleListQuickLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.QuickLinks())
}
