package command_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestboard/internal/command"
	"nestboard/internal/document"
	"nestboard/internal/domain"
	"nestboard/internal/navigation"
	"nestboard/internal/storage"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

type fixture struct {
	ws   *command.Workspace
	hist *command.History
	port *storage.Memory
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	port := storage.NewMemory()
	doc := document.New(port, document.WithIDGenerator(seqIDs()))
	ws := command.NewWorkspace(doc, navigation.NewStack(zerolog.Nop()), zerolog.Nop())
	return &fixture{ws: ws, hist: command.NewHistory(limit, zerolog.Nop()), port: port}
}

// failingPort refuses every Put while failPut is set, like a full disk.
type failingPort struct {
	*storage.Memory
	failPut bool
}

func (p *failingPort) Put(ctx context.Context, store storage.Store, rec storage.Record) error {
	if p.failPut {
		return errors.New("disk full")
	}
	return p.Memory.Put(ctx, store, rec)
}

func newFailingFixture(t *testing.T) (*fixture, *failingPort) {
	t.Helper()
	port := &failingPort{Memory: storage.NewMemory()}
	doc := document.New(port, document.WithIDGenerator(seqIDs()))
	ws := command.NewWorkspace(doc, navigation.NewStack(zerolog.Nop()), zerolog.Nop())
	return &fixture{ws: ws, hist: command.NewHistory(0, zerolog.Nop()), port: port.Memory}, port
}

func (f *fixture) exec(t *testing.T, cmd command.Command) {
	t.Helper()
	ok, err := f.hist.Execute(context.Background(), f.ws, cmd)
	require.NoError(t, err)
	require.True(t, ok, "%s had no effect", cmd.Name())
}

func (f *fixture) hasBlob(t *testing.T, id string) bool {
	t.Helper()
	ok, err := f.ws.Doc.HasBlob(context.Background(), id)
	require.NoError(t, err)
	return ok
}

func (f *fixture) blobData(t *testing.T, id string) string {
	t.Helper()
	b, ok, err := f.ws.Doc.Blob(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "blob %s missing", id)
	return b.Data
}

func (f *fixture) ids(nodeID string) []string {
	n, ok := f.ws.Doc.Node(nodeID)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.Elements))
	for _, el := range n.Elements {
		out = append(out, el.ID)
	}
	return out
}

func text(id, s string) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementTypeText, Text: s, Width: 100, Height: 40}
}

func image(id, blob string) domain.Element {
	return domain.Element{ID: id, Type: domain.ElementTypeImage, ImageDataID: blob, Width: 64, Height: 64}
}

// nested builds root > A("Hello") > [B(image X), C("inner") > [D(image Y)]]
// directly on the document, outside history.
func nested(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	d := f.ws.Doc
	require.NoError(t, d.AddElement(domain.RootID, text("A", "Hello")))
	_, _, err := d.EnsureChildNode(domain.RootID, "A")
	require.NoError(t, err)
	require.NoError(t, d.AddElement("A", image("B", "X")))
	require.NoError(t, d.AddElement("A", text("C", "inner")))
	_, _, err = d.EnsureChildNode("A", "C")
	require.NoError(t, err)
	require.NoError(t, d.AddElement("C", image("D", "Y")))
	require.NoError(t, d.SaveBlob(ctx, domain.Blob{ID: "X", Data: "data:image/png;base64,WA=="}))
	require.NoError(t, d.SaveBlob(ctx, domain.Blob{ID: "Y", Data: "data:image/png;base64,WQ=="}))
	require.NoError(t, d.Flush(ctx))
}

// ─────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────

func TestHistory_EmptyStacks(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.hist.Undo(ctx, f.ws)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)
	_, err = f.hist.Redo(ctx, f.ws)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
	assert.False(t, f.hist.CanUndo())
	assert.False(t, f.hist.CanRedo())
}

func TestHistory_NoOpIsNotRecorded(t *testing.T) {
	f := newFixture(t, 0)

	ok, err := f.hist.Execute(context.Background(), f.ws, command.NewDeleteElement(f.ws, domain.RootID, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.hist.CanUndo())
	assert.Equal(t, 0, f.ws.Doc.EditCounter())
}

func TestHistory_ExecuteAdvancesClockOnce(t *testing.T) {
	f := newFixture(t, 0)

	f.exec(t, command.NewAddElement(domain.RootID, text("a", "one"), nil))
	f.exec(t, command.NewAddElement(domain.RootID, text("b", "two"), nil))
	assert.Equal(t, 2, f.ws.Doc.EditCounter())

	_, err := f.hist.Undo(context.Background(), f.ws)
	require.NoError(t, err)
	assert.Equal(t, 2, f.ws.Doc.EditCounter(), "undo does not tick the clock")

	_, err = f.hist.Redo(context.Background(), f.ws)
	require.NoError(t, err)
	assert.Equal(t, 3, f.ws.Doc.EditCounter())
}

func TestHistory_StackDiscipline(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.exec(t, command.NewAddElement(domain.RootID, text("one", "1"), nil))
	f.exec(t, command.NewAddElement(domain.RootID, text("two", "2"), nil))
	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	f.exec(t, command.NewAddElement(domain.RootID, text("three", "3"), nil))

	_, err = f.hist.Redo(ctx, f.ws)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo, "a fresh command clears redo")

	cmd, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, "add", cmd.Name())
	assert.Equal(t, []string{"one"}, f.ids(domain.RootID))
}

func TestHistory_LimitEvictsOldest(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	for i := range 5 {
		f.exec(t, command.NewAddElement(domain.RootID, text(fmt.Sprintf("e%d", i), "x"), nil))
	}
	undo, _ := f.hist.Len()
	assert.Equal(t, 3, undo)

	for range 3 {
		_, err := f.hist.Undo(ctx, f.ws)
		require.NoError(t, err)
	}
	_, err := f.hist.Undo(ctx, f.ws)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)
	assert.Equal(t, []string{"e0", "e1"}, f.ids(domain.RootID))
}

func TestHistory_RedoOfVanishedTargetFails(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)

	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "A", domain.ElementPatch{X: domain.Ptr(50.0)}, nil))
	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)

	_, ok := f.ws.Doc.DeleteElement(domain.RootID, "A")
	require.True(t, ok)

	_, err = f.hist.Redo(ctx, f.ws)
	assert.ErrorIs(t, err, domain.ErrNotApplied)
}

func TestHistory_ClearForgetsEverything(t *testing.T) {
	f := newFixture(t, 0)
	f.exec(t, command.NewAddElement(domain.RootID, text("a", "one"), nil))
	f.hist.Clear()
	undo, redo := f.hist.Len()
	assert.Zero(t, undo)
	assert.Zero(t, redo)
}

func TestHistory_FailedExecuteIsNotRecorded(t *testing.T) {
	f, port := newFailingFixture(t)
	f.exec(t, command.NewAddElement(domain.RootID, text("a", "one"), nil))
	require.Equal(t, 1, f.ws.Doc.EditCounter())

	port.failPut = true
	ok, err := f.hist.Execute(context.Background(), f.ws, command.NewAddElement(domain.RootID, text("b", "two"), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, ok)

	undo, redo := f.hist.Len()
	assert.Equal(t, 1, undo)
	assert.Zero(t, redo)
	assert.Equal(t, 1, f.ws.Doc.EditCounter(), "a failed command does not tick the clock")
}

func TestHistory_FailedUndoCanBeRetried(t *testing.T) {
	f, port := newFailingFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "one")))
	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "a"))

	port.failPut = true
	_, err := f.hist.Undo(ctx, f.ws)
	require.Error(t, err)
	assert.True(t, f.hist.CanUndo(), "the command stays on the undo stack")
	assert.False(t, f.hist.CanRedo())

	port.failPut = false
	cmd, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, "delete", cmd.Name())
	assert.Equal(t, []string{"a"}, f.ids(domain.RootID))
	assert.False(t, f.hist.CanUndo())
	assert.True(t, f.hist.CanRedo())

	rec, found, err := f.port.Get(ctx, storage.StoreNodes, domain.RootID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(rec.Data), `"id":"a"`)
}

// ─────────────────────────────────────────────────────────────
// Delete / add
// ─────────────────────────────────────────────────────────────

func TestDelete_RoundTripRestoresEverything(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)
	beforeA, _ := f.ws.Doc.Node("A")
	beforeA = beforeA.Clone()

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	assert.Empty(t, f.ids(domain.RootID))
	_, ok := f.ws.Doc.Node("C")
	assert.False(t, ok, "nested nodes go with the card")
	assert.True(t, f.ws.Doc.IsBlobQueued("X"))
	assert.True(t, f.ws.Doc.IsBlobQueued("Y"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, f.ids(domain.RootID))
	afterA, ok := f.ws.Doc.Node("A")
	require.True(t, ok)
	assert.Equal(t, beforeA, afterA)
	_, ok = f.ws.Doc.Node("C")
	assert.True(t, ok)
	assert.Empty(t, f.ws.Doc.PendingDeletions())
	assert.True(t, f.hasBlob(t, "X"))
	assert.True(t, f.hasBlob(t, "Y"))
}

func TestDelete_UndoRestoresSweptBlobs(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)

	del := command.NewDeleteElement(f.ws, domain.RootID, "A")
	f.exec(t, del)
	assert.Len(t, del.BlobBackup(), 2)

	// simulate a sweep that already ran
	require.NoError(t, f.port.Delete(ctx, storage.StoreBlobs, "X"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,WA==", f.blobData(t, "X"))
}

func TestDelete_RestoresIndex(t *testing.T) {
	f := newFixture(t, 0)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text(id, id)))
	}

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "b"))
	assert.Equal(t, []string{"a", "c"}, f.ids(domain.RootID))

	_, err := f.hist.Undo(context.Background(), f.ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, f.ids(domain.RootID))
}

func TestDelete_ForgetsMembership(t *testing.T) {
	f := newFixture(t, 0)
	nested(t, f)
	f.ws.Doc.SetPriority("A", true)
	f.ws.Doc.SetLocked("D", true)

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	assert.False(t, f.ws.Doc.IsPriority("A"))
	assert.False(t, f.ws.Doc.IsLocked("D"), "nested elements leave the sets too")
}

func TestDelete_UndoRestoresMembershipAndQuickLinks(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)
	f.ws.Doc.SetPriority("A", true)
	f.ws.Doc.SetLocked("B", true)
	f.ws.Doc.SetPriority("D", true)
	_, ok := f.ws.Doc.AddQuickLink("A", 20)
	require.True(t, ok)
	_, ok = f.ws.Doc.AddQuickLink("C", 20)
	require.True(t, ok)

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	assert.Empty(t, f.ws.Doc.QuickLinks())

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.True(t, f.ws.Doc.IsPriority("A"))
	assert.True(t, f.ws.Doc.IsLocked("B"))
	assert.True(t, f.ws.Doc.IsPriority("D"))

	var linked []string
	for _, q := range f.ws.Doc.QuickLinks() {
		linked = append(linked, q.NodeID)
	}
	assert.ElementsMatch(t, []string{"A", "C"}, linked)

	// redo drops them again
	_, err = f.hist.Redo(ctx, f.ws)
	require.NoError(t, err)
	assert.False(t, f.ws.Doc.IsPriority("A"))
	assert.False(t, f.ws.Doc.IsLocked("B"))
	assert.Empty(t, f.ws.Doc.QuickLinks())
}

func TestAdd_ImageSavesBlob(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.exec(t, command.NewAddElement(domain.RootID, image("img", "P"), &domain.Blob{Data: "data:image/png;base64,UA=="}))
	assert.True(t, f.hasBlob(t, "P"))
	assert.False(t, f.ws.Doc.IsBlobQueued("P"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Empty(t, f.ids(domain.RootID))
	assert.True(t, f.ws.Doc.IsBlobQueued("P"))

	_, err = f.hist.Redo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"img"}, f.ids(domain.RootID))
	assert.False(t, f.ws.Doc.IsBlobQueued("P"))
}

func TestAdd_RejectsBlankAndDuplicate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	ok, err := f.hist.Execute(ctx, f.ws, command.NewAddElement(domain.RootID, text("blank", "   "), nil))
	require.NoError(t, err)
	assert.False(t, ok)

	f.exec(t, command.NewAddElement(domain.RootID, text("a", "x"), nil))
	ok, err = f.hist.Execute(ctx, f.ws, command.NewAddElement(domain.RootID, text("a", "y"), nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdd_RedoBringsBackNestedContent(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.exec(t, command.NewAddElement(domain.RootID, text("A", "Hello"), nil))
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)
	f.exec(t, command.NewAddElement("A", text("inner", "nested"), nil))
	require.True(t, f.ws.Nav.Back())

	// undo the inner add, then the outer one
	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	f.exec(t, command.NewAddElement("A", text("inner2", "again"), nil))
	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	_, ok := f.ws.Doc.Node("A")
	assert.False(t, ok)

	_, err = f.hist.Redo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, f.ids(domain.RootID))
	_, ok = f.ws.Doc.Node("A")
	assert.True(t, ok, "the nested node comes back with the card")

	_, err = f.hist.Redo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"inner2"}, f.ids("A"))
}

// ─────────────────────────────────────────────────────────────
// Update
// ─────────────────────────────────────────────────────────────

func TestUpdate_MergesStyleAndUndoes(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	el := text("a", "styled")
	el.Style = domain.Style{domain.StyleTextSize: "12"}
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, el))

	patch := domain.ElementPatch{Style: domain.Style{domain.StyleTextColor: "red"}}
	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "a", patch, nil))

	got, _ := f.ws.Doc.FindElementInNode(domain.RootID, "a")
	assert.Equal(t, domain.Style{domain.StyleTextSize: "12", domain.StyleTextColor: "red"}, got.Style)

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	got, _ = f.ws.Doc.FindElementInNode(domain.RootID, "a")
	assert.Equal(t, domain.Style{domain.StyleTextSize: "12"}, got.Style)
}

func TestUpdate_ExplicitOldValues(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "box")))
	// the element was resized live before the command was recorded
	f.ws.Doc.UpdateElement(domain.RootID, "a", domain.ElementPatch{Width: domain.Ptr(300.0)})

	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "a",
		domain.ElementPatch{Width: domain.Ptr(300.0)},
		&domain.ElementPatch{Width: domain.Ptr(100.0)}))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	got, _ := f.ws.Doc.FindElementInNode(domain.RootID, "a")
	assert.Equal(t, 100.0, got.Width)
}

func TestUpdate_BlankTextDeletesAndUndoRestores(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)

	cmd := command.NewUpdateElement(f.ws, domain.RootID, "A", domain.ElementPatch{Text: domain.Ptr("   ")}, nil)
	f.exec(t, cmd)
	assert.True(t, cmd.Deleted())
	assert.Empty(t, f.ids(domain.RootID))
	assert.True(t, f.ws.Doc.IsBlobQueued("X"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	got, ok := f.ws.Doc.FindElementInNode(domain.RootID, "A")
	require.True(t, ok)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, []string{"B", "C"}, f.ids("A"))
	assert.Empty(t, f.ws.Doc.PendingDeletions())
}

func TestUpdate_TextRefreshesTitles(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)

	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "A", domain.ElementPatch{Text: domain.Ptr("World")}, nil))
	n, _ := f.ws.Doc.Node("A")
	assert.Equal(t, "World", n.Title)
	assert.Equal(t, "World", f.ws.Nav.Current().Title)

	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, "Hello", n.Title)
	assert.Equal(t, "Hello", f.ws.Nav.Current().Title)
}

func TestUpdate_ImageSwapQueuesReplacedBlob(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, image("img", "old")))

	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "img", domain.ElementPatch{ImageDataID: domain.Ptr("new")}, nil))
	assert.True(t, f.ws.Doc.IsBlobQueued("old"))
	assert.False(t, f.ws.Doc.IsBlobQueued("new"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.False(t, f.ws.Doc.IsBlobQueued("old"))
	assert.True(t, f.ws.Doc.IsBlobQueued("new"))
}

func TestUpdate_EmptyPatchIsNoOp(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "x")))

	ok, err := f.hist.Execute(context.Background(), f.ws, command.NewUpdateElement(f.ws, domain.RootID, "a", domain.ElementPatch{}, nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_ZIndexUndoLeavesItUnset(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "x")))

	f.exec(t, command.NewUpdateElement(f.ws, domain.RootID, "a", domain.ElementPatch{ZIndex: domain.Ptr(4)}, nil))
	el, _ := f.ws.Doc.FindElementInNode(domain.RootID, "a")
	require.NotNil(t, el.ZIndex)

	_, err := f.hist.Undo(context.Background(), f.ws)
	require.NoError(t, err)
	el, _ = f.ws.Doc.FindElementInNode(domain.RootID, "a")
	assert.Nil(t, el.ZIndex)
}

// ─────────────────────────────────────────────────────────────
// Moves
// ─────────────────────────────────────────────────────────────

func TestMoveIntoSibling_MintsNewIdentity(t *testing.T) {
	f := newFixture(t, 0)
	nested(t, f)
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("T", "target")))

	cmd := command.NewMoveIntoSibling(domain.RootID, "A", "T")
	f.exec(t, cmd)

	assert.Equal(t, []string{"T"}, f.ids(domain.RootID))
	copyID, ok := command.MovedTo(cmd)
	require.True(t, ok)
	assert.NotEqual(t, "A", copyID)
	assert.Equal(t, []string{copyID}, f.ids("T"))

	moved, ok := f.ws.Doc.Node(copyID)
	require.True(t, ok)
	assert.Equal(t, "T", moved.ParentID)
	require.Len(t, moved.Elements, 2)
	assert.NotEqual(t, "B", moved.Elements[0].ID)
	assert.NotEqual(t, "C", moved.Elements[1].ID)

	newX := moved.Elements[0].ImageDataID
	assert.NotEqual(t, "X", newX)
	assert.Equal(t, f.blobData(t, "X"), f.blobData(t, newX))

	innerID := moved.Elements[1].ID
	inner, ok := f.ws.Doc.Node(innerID)
	require.True(t, ok)
	newY := inner.Elements[0].ImageDataID
	assert.NotEqual(t, "Y", newY)
	assert.Equal(t, f.blobData(t, "Y"), f.blobData(t, newY))

	assert.True(t, f.ws.Doc.IsBlobQueued("X"))
	assert.True(t, f.ws.Doc.IsBlobQueued("Y"))
	assert.False(t, f.ws.Doc.IsBlobQueued(newX))
	_, ok = f.ws.Doc.Node("A")
	assert.False(t, ok)
}

func TestMoveIntoSibling_UndoRestoresOriginal(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("T", "target")))

	cmd := command.NewMoveIntoSibling(domain.RootID, "A", "T")
	f.exec(t, cmd)
	copyID := cmd.CopyID()
	moved, _ := f.ws.Doc.Node(copyID)
	newX := moved.Elements[0].ImageDataID

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "T"}, f.ids(domain.RootID))
	_, ok := f.ws.Doc.Node("T")
	assert.False(t, ok, "the target node created by the move is dropped again")
	_, ok = f.ws.Doc.Node(copyID)
	assert.False(t, ok)
	assert.False(t, f.ws.Doc.IsBlobQueued("X"))
	assert.False(t, f.ws.Doc.IsBlobQueued("Y"))
	assert.True(t, f.ws.Doc.IsBlobQueued(newX), "duplicates are orphans now")
}

func TestMoveIntoSibling_KeepsExistingTargetNode(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("src", "moving")))
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("T", "target")))
	_, _, err := f.ws.Doc.EnsureChildNode(domain.RootID, "T")
	require.NoError(t, err)

	f.exec(t, command.NewMoveIntoSibling(domain.RootID, "src", "T"))
	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)

	_, ok := f.ws.Doc.Node("T")
	assert.True(t, ok)
}

func TestMoveIntoSibling_IntoSelfIsNoOp(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "x")))

	ok, err := f.hist.Execute(context.Background(), f.ws, command.NewMoveIntoSibling(domain.RootID, "a", "a"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, f.ids(domain.RootID))
}

func TestMoveToAncestor(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)
	_, err = f.ws.Nav.Enter(f.ws.Doc, "C")
	require.NoError(t, err)

	cmd := command.NewMoveToAncestor(f.ws, "D", 0)
	f.exec(t, cmd)
	assert.Empty(t, f.ids("C"))
	assert.Equal(t, []string{"A", cmd.CopyID()}, f.ids(domain.RootID))
	assert.True(t, f.ws.Doc.IsBlobQueued("Y"))

	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, f.ids("C"))
	assert.Equal(t, []string{"A"}, f.ids(domain.RootID))
}

func TestMoveToAncestor_SameLocationIsNoOp(t *testing.T) {
	f := newFixture(t, 0)
	nested(t, f)
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)

	cmd := command.NewMoveToAncestor(f.ws, "B", 1)
	assert.True(t, cmd.SameLocation())
	ok, err := f.hist.Execute(context.Background(), f.ws, cmd)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"B", "C"}, f.ids("A"))
}

// ─────────────────────────────────────────────────────────────
// Inbox
// ─────────────────────────────────────────────────────────────

func TestInbox_RoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	nested(t, f)

	toInbox := command.NewMoveToInbox(domain.RootID, "A")
	f.exec(t, toInbox)
	assert.Empty(t, f.ids(domain.RootID))
	require.Len(t, f.ws.Doc.Inbox(), 1)
	card := f.ws.Doc.Inbox()[0]
	assert.Equal(t, toInbox.CardID(), card.ID)
	assert.Equal(t, "A", card.OriginalID)
	assert.Len(t, card.Nodes, 2)
	assert.Empty(t, f.ws.Doc.PendingDeletions(), "the card keeps its blobs alive")

	place := command.NewPlaceFromInbox(card.ID, domain.RootID, domain.Ptr(5.0), nil)
	f.exec(t, place)
	assert.Empty(t, f.ws.Doc.Inbox())
	placed, ok := f.ws.Doc.FindElementInNode(domain.RootID, place.CopyID())
	require.True(t, ok)
	assert.Equal(t, 5.0, placed.X)
	assert.True(t, f.ws.Doc.IsBlobQueued("X"))
	assert.True(t, f.ws.Doc.IsBlobQueued("Y"))

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Empty(t, f.ids(domain.RootID))
	require.Len(t, f.ws.Doc.Inbox(), 1)
	assert.False(t, f.ws.Doc.IsBlobQueued("X"))

	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	assert.Empty(t, f.ws.Doc.Inbox())
	assert.Equal(t, []string{"A"}, f.ids(domain.RootID))
	assert.Equal(t, []string{"B", "C"}, f.ids("A"))
}

func TestInbox_RedoKeepsCardID(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.ws.Doc.AddElement(domain.RootID, text("a", "note")))

	cmd := command.NewMoveToInbox(domain.RootID, "a")
	f.exec(t, cmd)
	first := cmd.CardID()

	_, err := f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)
	_, err = f.hist.Redo(ctx, f.ws)
	require.NoError(t, err)
	assert.Equal(t, first, cmd.CardID())
	_, ok := f.ws.Doc.InboxCard(first)
	assert.True(t, ok)
}

func TestInbox_FailedDeleteKeepsCard(t *testing.T) {
	f, port := newFailingFixture(t)
	nested(t, f)

	port.failPut = true
	ok, err := f.hist.Execute(context.Background(), f.ws, command.NewMoveToInbox(domain.RootID, "A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, ok)
	assert.False(t, f.hist.CanUndo())

	// the card left the canvas in memory, so the inbox copy must survive
	assert.Empty(t, f.ids(domain.RootID))
	require.Len(t, f.ws.Doc.Inbox(), 1)
	assert.Equal(t, "A", f.ws.Doc.Inbox()[0].OriginalID)
	assert.Empty(t, f.ws.Doc.PendingDeletions(), "the card keeps its blobs alive")

	port.failPut = false
	require.NoError(t, f.ws.Doc.Flush(context.Background()))
}

// ─────────────────────────────────────────────────────────────
// Deferred blob deletion and navigation
// ─────────────────────────────────────────────────────────────

func TestGC_BlobSurvivesUntilDelayElapses(t *testing.T) {
	f := newFixture(t, 0)
	nested(t, f)

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	// queued at counter 0 for 0+10; the delete itself ticked to 1
	for i := range 8 {
		f.exec(t, command.NewAddElement(domain.RootID, text(fmt.Sprintf("pad%d", i), "x"), nil))
	}
	assert.Equal(t, 9, f.ws.Doc.EditCounter())
	assert.True(t, f.hasBlob(t, "X"))

	f.exec(t, command.NewAddElement(domain.RootID, text("last", "x"), nil))
	assert.False(t, f.hasBlob(t, "X"))
	assert.False(t, f.hasBlob(t, "Y"))
	assert.Empty(t, f.ws.Doc.PendingDeletions())
}

func TestNavigation_PrunedAfterDeletingCurrentNode(t *testing.T) {
	f := newFixture(t, 0)
	nested(t, f)
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)
	_, err = f.ws.Nav.Enter(f.ws.Doc, "C")
	require.NoError(t, err)

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	assert.Equal(t, domain.RootID, f.ws.Nav.CurrentID())
}

// The worked example: a card with an image nested inside it is deleted from
// the top level and brought back by undo.
func TestScenario_DeleteNestedImageAndUndo(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	a := text("A", "Hello")
	a.X, a.Y = 10, 10
	f.exec(t, command.NewAddElement(domain.RootID, a, nil))
	_, err := f.ws.Nav.Enter(f.ws.Doc, "A")
	require.NoError(t, err)
	f.exec(t, command.NewAddElement("A", image("B", "X"), &domain.Blob{Data: "data:image/png;base64,WA=="}))
	require.True(t, f.ws.Nav.Back())

	f.exec(t, command.NewDeleteElement(f.ws, domain.RootID, "A"))
	assert.Empty(t, f.ids(domain.RootID))
	assert.True(t, f.ws.Doc.IsBlobQueued("X"))
	assert.True(t, f.hasBlob(t, "X"))

	_, err = f.hist.Undo(ctx, f.ws)
	require.NoError(t, err)

	got, ok := f.ws.Doc.FindElementInNode(domain.RootID, "A")
	require.True(t, ok)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, []string{"B"}, f.ids("A"))
	assert.True(t, f.hasBlob(t, "X"))
	assert.False(t, f.ws.Doc.IsBlobQueued("X"))

	// the restored state is what a fresh load sees
	reloaded := document.New(f.port)
	require.NoError(t, reloaded.Load(ctx))
	_, ok = reloaded.FindElementInNode("A", "B")
	assert.True(t, ok)
	assert.Empty(t, reloaded.PendingDeletions())
}
