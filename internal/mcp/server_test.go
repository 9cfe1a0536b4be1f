package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestboard/internal/document"
	"nestboard/internal/domain"
	"nestboard/internal/service"
	"nestboard/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := service.NewCanvasService(document.New(storage.NewMemory()), nil, zerolog.Nop(), service.Options{})
	require.NoError(t, svc.Load(context.Background()))
	return New(svc, "test", zerolog.Nop())
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, error) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		return "", err
	}
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, nil
}

func callJSON[T any](t *testing.T, h server.ToolHandlerFunc, args map[string]any) T {
	t.Helper()
	out, err := call(t, h, args)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

// ─────────────────────────────────────────────────────────────
// Cards
// ─────────────────────────────────────────────────────────────

func TestAddText_AutoPlacesCards(t *testing.T) {
	s := newTestServer(t)

	first := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "one"})
	second := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "two"})
	explicit := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "three", "x": 500.0, "y": 700.0})

	assert.Equal(t, [2]float64{0, 0}, [2]float64{first.X, first.Y})
	assert.Equal(t, [2]float64{cardWidth + Padding, 0}, [2]float64{second.X, second.Y})
	assert.Equal(t, [2]float64{500, 700}, [2]float64{explicit.X, explicit.Y})

	listed := callJSON[[]elementSummary](t, s.handleListElements, nil)
	assert.Len(t, listed, 3)
}

func TestAddText_RequiresText(t *testing.T) {
	s := newTestServer(t)
	_, err := call(t, s.handleAddText, map[string]any{})
	assert.Error(t, err)
	_, err = call(t, s.handleAddText, map[string]any{"text": "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyText)
}

func TestAddTexts_ArrangesOneCardPerLine(t *testing.T) {
	s := newTestServer(t)
	added := callJSON[[]elementSummary](t, s.handleAddTexts, map[string]any{"lines": "alpha\n\n beta \ngamma"})
	require.Len(t, added, 3)
	assert.Equal(t, "beta", added[1].Text)

	for i := range added {
		for j := i + 1; j < len(added); j++ {
			a := rect{added[i].X, added[i].Y, added[i].Width, added[i].Height}
			b := rect{added[j].X, added[j].Y, added[j].Width, added[j].Height}
			assert.False(t, a.intersects(b), "cards %d and %d overlap", i, j)
		}
	}
}

func TestUpdateElement(t *testing.T) {
	s := newTestServer(t)
	el := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "draft"})

	updated := callJSON[elementSummary](t, s.handleUpdateElement, map[string]any{
		"elementId": el.ID,
		"text":      "final",
		"style":     `{"textColor":"red"}`,
	})
	assert.Equal(t, "final", updated.Text)
	assert.Equal(t, "red", updated.Style[domain.StyleTextColor])

	_, err := call(t, s.handleUpdateElement, map[string]any{"elementId": el.ID, "style": `{"font":"x"}`})
	assert.ErrorContains(t, err, "unknown style key")

	_, err = call(t, s.handleUpdateElement, map[string]any{"elementId": el.ID})
	assert.ErrorContains(t, err, "nothing to update")

	out, err := call(t, s.handleUpdateElement, map[string]any{"elementId": el.ID, "text": ""})
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")
	assert.Empty(t, s.canvas.Elements())
}

func TestDeleteAndUndo(t *testing.T) {
	s := newTestServer(t)

	out, err := call(t, s.handleUndo, nil)
	require.NoError(t, err)
	assert.Equal(t, "Nothing to undo", out)

	el := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "keep me"})
	_, err = call(t, s.handleDeleteElement, map[string]any{"elementId": el.ID})
	require.NoError(t, err)
	assert.Empty(t, s.canvas.Elements())

	out, err = call(t, s.handleUndo, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Undid")
	assert.Len(t, s.canvas.Elements(), 1)

	out, err = call(t, s.handleRedo, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Redid")
	assert.Empty(t, s.canvas.Elements())
}

func TestLockedCardCannotBeDeleted(t *testing.T) {
	s := newTestServer(t)
	el := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "pinned"})
	_, err := call(t, s.handleSetLocked, map[string]any{"elementId": el.ID, "locked": true})
	require.NoError(t, err)

	_, err = call(t, s.handleDeleteElement, map[string]any{"elementId": el.ID})
	assert.ErrorIs(t, err, domain.ErrLocked)
}

// ─────────────────────────────────────────────────────────────
// Navigation and nesting
// ─────────────────────────────────────────────────────────────

func TestNestEnterAndMoveBack(t *testing.T) {
	s := newTestServer(t)
	box := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "box"})
	item := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "item"})

	nested := callJSON[map[string]string](t, s.handleNestElement, map[string]any{"elementId": item.ID, "targetId": box.ID})
	assert.NotEqual(t, item.ID, nested["elementId"])
	assert.Len(t, s.canvas.Elements(), 1)

	entry := callJSON[map[string]string](t, s.handleEnterElement, map[string]any{"elementId": box.ID})
	assert.Equal(t, box.ID, entry["nodeId"])
	loc := callJSON[service.Location](t, s.handleGetLocation, nil)
	require.Len(t, loc.Path, 2)
	require.Len(t, loc.Node.Elements, 1)

	moved := callJSON[map[string]string](t, s.handleMoveToAncestor, map[string]any{"elementId": nested["elementId"], "index": 0.0})
	assert.NotEmpty(t, moved["elementId"])
	assert.Empty(t, s.canvas.Elements())

	_, err := call(t, s.handleGoBack, nil)
	require.NoError(t, err)
	assert.Len(t, s.canvas.Elements(), 2)

	out, err := call(t, s.handleGoBack, nil)
	require.NoError(t, err)
	assert.Equal(t, "Already at home", out)
}

func TestNavigateAndOpenLink(t *testing.T) {
	s := newTestServer(t)
	el := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "Project plan"})
	callJSON[map[string]string](t, s.handleEnterElement, map[string]any{"elementId": el.ID})
	link := s.canvas.Location().Link

	_, err := call(t, s.handleGoTo, map[string]any{"index": 0.0})
	require.NoError(t, err)
	_, err = call(t, s.handleGoTo, map[string]any{"index": 5.0})
	assert.Error(t, err)

	path := callJSON[[]map[string]string](t, s.handleOpenLink, map[string]any{"link": link})
	require.Len(t, path, 2)
	assert.Equal(t, el.ID, path[1]["nodeId"])

	_, err = call(t, s.handleNavigate, map[string]any{"nodeId": "missing"})
	assert.Error(t, err)
	path = callJSON[[]map[string]string](t, s.handleNavigate, map[string]any{"nodeId": domain.RootID})
	assert.Len(t, path, 1)
}

// ─────────────────────────────────────────────────────────────
// Inbox
// ─────────────────────────────────────────────────────────────

func TestInboxRoundTrip(t *testing.T) {
	s := newTestServer(t)
	el := callJSON[elementSummary](t, s.handleAddText, map[string]any{"text": "later"})

	moved := callJSON[map[string]string](t, s.handleMoveToInbox, map[string]any{"elementId": el.ID})
	require.NotEmpty(t, moved["cardId"])
	assert.Empty(t, s.canvas.Elements())

	inbox := callJSON[[]map[string]any](t, s.handleListInbox, nil)
	require.Len(t, inbox, 1)
	assert.Equal(t, moved["cardId"], inbox[0]["id"])

	placed := callJSON[map[string]string](t, s.handlePlaceFromInbox, map[string]any{"cardId": moved["cardId"]})
	assert.NotEmpty(t, placed["elementId"])
	assert.Len(t, s.canvas.Elements(), 1)
	assert.Empty(t, s.canvas.Inbox())

	_, err := call(t, s.handlePlaceFromInbox, map[string]any{"cardId": moved["cardId"]})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────
// Resources
// ─────────────────────────────────────────────────────────────

func TestResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	img := callJSON[elementSummary](t, s.handleAddImage, map[string]any{"data": "data:image/png;base64,AAA="})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = nodePrefix + domain.RootID
	contents, err := s.handleNodeResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, img.ID)

	req.Params.URI = blobPrefix + img.ImageID
	contents, err = s.handleBlobResource(ctx, req)
	require.NoError(t, err)
	blob := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, "data:image/png;base64,AAA=", blob.Text)

	req.Params.URI = nodePrefix + "missing"
	_, err = s.handleNodeResource(ctx, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddImage_RejectsRawData(t *testing.T) {
	s := newTestServer(t)
	_, err := call(t, s.handleAddImage, map[string]any{"data": "AAA="})
	assert.Error(t, err)
}

func TestIDFromURI(t *testing.T) {
	assert.Equal(t, "abc", idFromURI("canvas://node/abc", nodePrefix))
	assert.Equal(t, "abc", idFromURI("canvas://node/abc/extra", nodePrefix))
	assert.Equal(t, "", idFromURI("other://node/abc", nodePrefix))
	assert.Equal(t, "text/plain", mimeOfDataURL("plain"))
}
