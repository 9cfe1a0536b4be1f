package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("brainstorm",
		mcp.WithPromptDescription("Capture ideas about a topic as cards and group them into nested canvases"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic to brainstorm"),
			mcp.RequiredArgument(),
		),
	), s.handleBrainstormPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("triage_inbox",
		mcp.WithPromptDescription("Walk through the inbox and place each card where it belongs"),
	), s.handleTriageInboxPrompt)
}

func (s *Server) handleBrainstormPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Brainstorm: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Brainstorm "%s" on the current node. Follow these steps:

1. Use add_text to create a title card named after the topic
2. Use add_texts to capture one idea per line
3. Group related ideas: nest_element moves a card inside another card
4. Open a group with enter_element to expand it further, and go_back when done
5. Finish with get_outline to show the resulting structure

Every step can be reverted with undo.`, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTriageInboxPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Triage the inbox",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Empty the inbox. Follow these steps:

1. Use list_inbox to see the waiting cards and get_outline to see the canvas
2. For each card pick the node it belongs to and open it with navigate
3. Use place_from_inbox to put the card there
4. Ask before deleting anything; a card with nested content should be placed, not dropped`,
				},
			},
		},
	}, nil
}
