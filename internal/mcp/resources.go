package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	outlineURI = "canvas://outline"
	nodePrefix = "canvas://node/"
	blobPrefix = "canvas://blob/"
)

func (s *Server) registerResources() {
	// ── canvas://outline ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		outlineURI,
		"Canvas Outline",
		mcp.WithMIMEType("application/json"),
	), s.handleOutlineResource)

	// ── canvas://node/{nodeId} ─────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			nodePrefix+"{nodeId}",
			"Cards on a Node",
		),
		s.handleNodeResource,
	)

	// ── canvas://blob/{blobId} ─────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			blobPrefix+"{blobId}",
			"Image Data",
		),
		s.handleBlobResource,
	)
}

func (s *Server) handleOutlineResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(outlineURI, s.canvas.Outline())
}

func (s *Server) handleNodeResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := idFromURI(uri, nodePrefix)
	if id == "" {
		return nil, fmt.Errorf("could not extract nodeId from URI: %s", uri)
	}
	node, err := s.canvas.Node(id)
	if err != nil {
		return nil, err
	}

	summaries := make([]elementSummary, len(node.Elements))
	for i, e := range node.Elements {
		summaries[i] = summarizeElement(e)
	}
	return jsonContents(uri, map[string]any{
		"id":       node.ID,
		"parentId": node.ParentID,
		"title":    node.Title,
		"elements": summaries,
	})
}

func (s *Server) handleBlobResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := idFromURI(uri, blobPrefix)
	if id == "" {
		return nil, fmt.Errorf("could not extract blobId from URI: %s", uri)
	}
	data, err := s.canvas.BlobData(ctx, id)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeOfDataURL(data),
			Text:     data,
		},
	}, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// idFromURI returns the path segment following prefix.
func idFromURI(uri, prefix string) string {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

// mimeOfDataURL reads the media type of "data:image/png;base64,...".
func mimeOfDataURL(data string) string {
	rest, ok := strings.CutPrefix(data, "data:")
	if !ok {
		return "text/plain"
	}
	mime, _, _ := strings.Cut(rest, ";")
	if mime == "" || strings.Contains(mime, ",") {
		return "text/plain"
	}
	return mime
}
