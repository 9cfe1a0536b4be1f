package document

import (
	"slices"

	"nestboard/internal/domain"
)

// FindElementInNode looks id up in a single node.
func (d *Document) FindElementInNode(nodeID, id string) (domain.Element, bool) {
	n, ok := d.nodes[nodeID]
	if !ok {
		return domain.Element{}, false
	}
	i := n.IndexOf(id)
	if i < 0 {
		return domain.Element{}, false
	}
	return n.Elements[i], true
}

// FindNodeByID walks the tree from root depth-first. Unlike Node it ignores
// arena entries that are not reachable from root.
func (d *Document) FindNodeByID(id string) (*domain.Node, bool) {
	if id == domain.RootID {
		return d.Root(), true
	}
	path, ok := d.PathTo(id)
	if !ok {
		return nil, false
	}
	return d.nodes[path[len(path)-1]], true
}

// FindElementGlobally searches every reachable node, depth-first from root.
// It returns the id of the node that owns the element.
func (d *Document) FindElementGlobally(id string) (string, domain.Element, bool) {
	var (
		owner string
		found domain.Element
	)
	d.walk(domain.RootID, func(n *domain.Node) bool {
		if i := n.IndexOf(id); i >= 0 {
			owner, found = n.ID, n.Elements[i]
			return false
		}
		return true
	})
	return owner, found, owner != ""
}

// PathTo returns the root-to-target chain of node ids, following children maps.
func (d *Document) PathTo(targetID string) ([]string, bool) {
	var path []string
	var visit func(id string) bool
	visit = func(id string) bool {
		n, ok := d.nodes[id]
		if !ok {
			return false
		}
		path = append(path, id)
		if id == targetID {
			return true
		}
		for _, childID := range sortedChildren(n) {
			if visit(childID) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if !visit(domain.RootID) {
		return nil, false
	}
	return path, true
}

// PathToParentOf returns the root-to-owner chain for the node containing elementID.
func (d *Document) PathToParentOf(elementID string) ([]string, bool) {
	owner, _, ok := d.FindElementGlobally(elementID)
	if !ok {
		return nil, false
	}
	return d.PathTo(owner)
}

// CollectImageIDs returns every blob id reachable from the node, de-duplicated,
// in depth-first order.
func (d *Document) CollectImageIDs(nodeID string) []string {
	var ids []string
	seen := map[string]struct{}{}
	d.walk(nodeID, func(n *domain.Node) bool {
		for _, el := range n.Elements {
			if !el.IsImage() || el.ImageDataID == "" {
				continue
			}
			if _, dup := seen[el.ImageDataID]; dup {
				continue
			}
			seen[el.ImageDataID] = struct{}{}
			ids = append(ids, el.ImageDataID)
		}
		return true
	})
	return ids
}

// ElementImageIDs returns the blob owned by the element plus every blob in its nested subtree.
func (d *Document) ElementImageIDs(nodeID, elementID string) []string {
	n, ok := d.nodes[nodeID]
	if !ok {
		return nil
	}
	var ids []string
	if i := n.IndexOf(elementID); i >= 0 && n.Elements[i].IsImage() && n.Elements[i].ImageDataID != "" {
		ids = append(ids, n.Elements[i].ImageDataID)
	}
	if childID, ok := n.Children[elementID]; ok {
		for _, id := range d.CollectImageIDs(childID) {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Subtree returns deep clones of the node and all its descendants, parents first.
func (d *Document) Subtree(nodeID string) []domain.Node {
	var out []domain.Node
	d.walk(nodeID, func(n *domain.Node) bool {
		out = append(out, *n.Clone())
		return true
	})
	return out
}

// ElementSubtree returns clones of the nested nodes owned by an element, or nil.
func (d *Document) ElementSubtree(nodeID, elementID string) []domain.Node {
	n, ok := d.nodes[nodeID]
	if !ok {
		return nil
	}
	childID, ok := n.Children[elementID]
	if !ok {
		return nil
	}
	return d.Subtree(childID)
}

// Walk visits the node and its descendants depth-first, parents first.
func (d *Document) Walk(nodeID string, fn func(n *domain.Node)) {
	d.walk(nodeID, func(n *domain.Node) bool {
		fn(n)
		return true
	})
}

// walk stops early when fn returns false.
func (d *Document) walk(nodeID string, fn func(n *domain.Node) bool) bool {
	n, ok := d.nodes[nodeID]
	if !ok {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, childID := range sortedChildren(n) {
		if !d.walk(childID, fn) {
			return false
		}
	}
	return true
}

// sortedChildren orders child node ids by the position of their owning
// element, so traversal follows display order.
func sortedChildren(n *domain.Node) []string {
	if len(n.Children) == 0 {
		return nil
	}
	type entry struct {
		pos   int
		child string
	}
	entries := make([]entry, 0, len(n.Children))
	for elID, childID := range n.Children {
		pos := n.IndexOf(elID)
		if pos < 0 {
			pos = len(n.Elements)
		}
		entries = append(entries, entry{pos, childID})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.pos != b.pos {
			return a.pos - b.pos
		}
		if a.child < b.child {
			return -1
		}
		if a.child > b.child {
			return 1
		}
		return 0
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.child
	}
	return out
}
