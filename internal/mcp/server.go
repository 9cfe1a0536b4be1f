package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"nestboard/internal/service"
)

// Server is the MCP server for nestboard.
// It exposes tools, resources and prompts so agents can work on the canvas.
type Server struct {
	mcp    *server.MCPServer
	canvas *service.CanvasService
	layout *LayoutEngine
	logger zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(canvas *service.CanvasService, version string, logger zerolog.Logger) *Server {
	s := &Server{
		canvas: canvas,
		layout: NewLayoutEngine(),
		logger: logger,
	}

	s.mcp = server.NewMCPServer(
		"nestboard",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerNavigationTools()
	s.registerElementTools()
	s.registerHistoryTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("mcp stdio server starting")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireString returns a non-empty string argument.
func requireString(req mcp.CallToolRequest, name string) (string, error) {
	v := req.GetString(name, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// optionalFloat returns a pointer to a numeric argument, or nil when absent.
func optionalFloat(req mcp.CallToolRequest, name string) *float64 {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return nil
	}
	v := req.GetFloat(name, 0)
	return &v
}

func boolPtr(v bool) *bool { return &v }

// placement picks the position of a new card on the current node: explicit
// coordinates win, otherwise the layout engine finds a free spot.
func (s *Server) placement(req mcp.CallToolRequest, w, h float64) (float64, float64) {
	x, y := optionalFloat(req, "x"), optionalFloat(req, "y")
	if x != nil && y != nil {
		return *x, *y
	}
	return s.grid().NextPosition(s.canvas.Elements(), w, h)
}

// grid is the layout engine snapped to the user's grid preference.
func (s *Server) grid() *LayoutEngine {
	return s.layout.WithGrid(s.canvas.Preferences().GridSize)
}

