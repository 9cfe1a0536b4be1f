package document

import (
	"slices"

	"nestboard/internal/domain"
)

// UpdateOutcome tells the caller what UpdateElement did.
type UpdateOutcome int

const (
	NotFound UpdateOutcome = iota
	Updated
	Deleted // the update blanked a text card, so it was deleted instead
)

// DeleteResult describes a cascading delete.
type DeleteResult struct {
	Element      domain.Element
	Index        int
	RemovedNodes []string
	QueuedBlobs  []string

	// state the delete dropped, for RestoreState
	LockedIDs   []string
	PriorityIDs []string
	QuickLinks  []domain.QuickLink
}

// AddElement appends el to the node.
func (d *Document) AddElement(nodeID string, el domain.Element) error {
	return d.InsertElement(nodeID, el, -1)
}

// InsertElement puts el at index, or appends when index is out of range.
func (d *Document) InsertElement(nodeID string, el domain.Element, index int) error {
	n, ok := d.nodes[nodeID]
	if !ok {
		return domain.NotFoundError{Kind: "node", ID: nodeID}
	}
	el = el.Clone()
	if index < 0 || index > len(n.Elements) {
		n.Elements = append(n.Elements, el)
	} else {
		n.Elements = slices.Insert(n.Elements, index, el)
	}
	d.markDirty(nodeID)
	return nil
}

// UpdateElement merges patch into the element. Style merges shallowly. When
// the result is a blank text card the element is deleted instead.
func (d *Document) UpdateElement(nodeID, id string, patch domain.ElementPatch) UpdateOutcome {
	n, ok := d.nodes[nodeID]
	if !ok {
		return NotFound
	}
	i := n.IndexOf(id)
	if i < 0 {
		return NotFound
	}
	next := patch.Apply(n.Elements[i])
	if next.IsBlank() {
		if _, ok := d.DeleteElement(nodeID, id); !ok {
			return NotFound
		}
		return Deleted
	}
	n.Elements[i] = next
	d.markDirty(nodeID)
	if patch.Text != nil {
		d.RefreshChildTitle(nodeID, id)
	}
	return Updated
}

// RefreshChildTitle re-derives the title of the node nested under an element.
func (d *Document) RefreshChildTitle(nodeID, elementID string) (string, bool) {
	n, ok := d.nodes[nodeID]
	if !ok {
		return "", false
	}
	childID, ok := n.Children[elementID]
	if !ok {
		return "", false
	}
	child, ok := d.nodes[childID]
	if !ok {
		return "", false
	}
	i := n.IndexOf(elementID)
	if i < 0 {
		return "", false
	}
	title := n.Elements[i].DisplayTitle()
	if child.Title != title {
		child.Title = title
		d.markDirty(childID)
	}
	return title, true
}

// DeleteElement removes the element, cascades to its nested nodes, queues every
// blob they owned for deferred deletion and forgets every removed element in
// membership sets. Quick links into the removed nodes are dropped.
func (d *Document) DeleteElement(nodeID, id string) (DeleteResult, bool) {
	n, ok := d.nodes[nodeID]
	if !ok {
		return DeleteResult{}, false
	}
	i := n.IndexOf(id)
	if i < 0 {
		return DeleteResult{}, false
	}

	res := DeleteResult{
		Element:     n.Elements[i].Clone(),
		Index:       i,
		QueuedBlobs: d.ElementImageIDs(nodeID, id),
	}

	elementIDs := []string{id}
	if childID, ok := n.Children[id]; ok {
		d.Walk(childID, func(sub *domain.Node) {
			for _, e := range sub.Elements {
				elementIDs = append(elementIDs, e.ID)
			}
		})
		res.RemovedNodes = d.removeSubtree(childID)
		delete(n.Children, id)
	}
	n.Elements = slices.Delete(n.Elements, i, i+1)
	d.markDirty(nodeID)

	if len(res.QueuedBlobs) > 0 {
		d.gc.Enqueue(d.state, res.QueuedBlobs)
		d.markState()
	}
	res.LockedIDs, res.PriorityIDs = d.state.Forget(elementIDs...)
	res.QuickLinks = d.dropQuickLinks(res.RemovedNodes)
	if len(res.LockedIDs)+len(res.PriorityIDs)+len(res.QuickLinks) > 0 {
		d.markState()
	}
	return res, true
}

// RestoreState puts back the memberships and quick links a delete dropped.
// A quick link whose node is gone again, or that has since expired, stays dropped.
func (d *Document) RestoreState(res DeleteResult) {
	for _, id := range res.LockedIDs {
		d.SetLocked(id, true)
	}
	for _, id := range res.PriorityIDs {
		d.SetPriority(id, true)
	}
	for _, q := range res.QuickLinks {
		if _, ok := d.nodes[q.NodeID]; !ok || q.ExpiresAt <= d.state.EditCounter {
			continue
		}
		if slices.ContainsFunc(d.state.QuickLinks, func(v domain.QuickLink) bool { return v.NodeID == q.NodeID }) {
			continue
		}
		d.state.QuickLinks = append(d.state.QuickLinks, q)
		d.markState()
	}
}

// removeSubtree drops the node and all descendants from the arena.
func (d *Document) removeSubtree(nodeID string) []string {
	var ids []string
	d.Walk(nodeID, func(n *domain.Node) {
		ids = append(ids, n.ID)
	})
	for _, id := range ids {
		delete(d.nodes, id)
		d.markRemoved(id)
	}
	return ids
}

// RestoreElement re-inserts a deleted element at its former index together
// with its nested nodes, verbatim.
func (d *Document) RestoreElement(nodeID string, el domain.Element, index int, nodes []domain.Node) error {
	parent, ok := d.nodes[nodeID]
	if !ok {
		return domain.NotFoundError{Kind: "node", ID: nodeID}
	}
	if err := d.InsertElement(nodeID, el, index); err != nil {
		return err
	}
	d.putNodes(nodes)
	if _, ok := d.nodes[el.ID]; ok && len(nodes) > 0 {
		parent.Children[el.ID] = el.ID
	}
	return nil
}

func (d *Document) putNodes(nodes []domain.Node) {
	for i := range nodes {
		n := nodes[i].Clone()
		n.Normalize()
		d.nodes[n.ID] = n
		d.markDirty(n.ID)
	}
}

// EnsureChildNode returns the node nested under an element, creating it when
// absent. The title is refreshed from the element either way.
func (d *Document) EnsureChildNode(parentID, elementID string) (*domain.Node, bool, error) {
	parent, ok := d.nodes[parentID]
	if !ok {
		return nil, false, domain.NotFoundError{Kind: "node", ID: parentID}
	}
	i := parent.IndexOf(elementID)
	if i < 0 {
		return nil, false, domain.NotFoundError{Kind: "element", ID: elementID}
	}
	title := parent.Elements[i].DisplayTitle()

	if childID, ok := parent.Children[elementID]; ok {
		if child, ok := d.nodes[childID]; ok {
			if child.Title != title {
				child.Title = title
				d.markDirty(childID)
			}
			return child, false, nil
		}
	}

	child := domain.NewNode(elementID, parentID, title)
	d.nodes[child.ID] = child
	parent.Children[elementID] = child.ID
	d.markDirty(child.ID)
	d.markDirty(parentID)
	return child, true, nil
}

// RemoveChildNode drops the node nested under an element if it is empty.
func (d *Document) RemoveChildNode(parentID, elementID string) bool {
	parent, ok := d.nodes[parentID]
	if !ok {
		return false
	}
	childID, ok := parent.Children[elementID]
	if !ok {
		return false
	}
	if child, ok := d.nodes[childID]; ok && !child.IsEmpty() {
		return false
	}
	delete(parent.Children, elementID)
	delete(d.nodes, childID)
	d.markRemoved(childID)
	d.markDirty(parentID)
	return true
}
