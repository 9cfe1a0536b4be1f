package document

import (
	"nestboard/internal/domain"
)

// Copy is a detached deep copy of an element with freshly minted ids.
// Blobs maps each original blob id to the id its duplicate must be written under.
type Copy struct {
	Element domain.Element
	Nodes   []domain.Node
	Blobs   map[string]string
}

// BlobIDs returns the new blob ids of the copy.
func (c Copy) BlobIDs() []string {
	ids := make([]string, 0, len(c.Blobs))
	for _, id := range c.Blobs {
		ids = append(ids, id)
	}
	return ids
}

type copier struct {
	lookup func(id string) (*domain.Node, bool)
	newID  func() string
	blobs  map[string]string
	nodes  []domain.Node
}

func (c *copier) element(el domain.Element, src *domain.Node, newParentID string) (domain.Element, bool) {
	out := el.Clone()
	out.ID = c.newID()
	if out.IsImage() && out.ImageDataID != "" {
		nb, ok := c.blobs[el.ImageDataID]
		if !ok {
			nb = c.newID()
			c.blobs[el.ImageDataID] = nb
		}
		out.ImageDataID = nb
	}

	childID, ok := src.Children[el.ID]
	if !ok {
		return out, false
	}
	child, ok := c.lookup(childID)
	if !ok {
		return out, false
	}
	c.node(child, out.ID, newParentID)
	return out, true
}

// node copies src under newID and recurses into every element it holds.
func (c *copier) node(src *domain.Node, newID, parentID string) {
	out := domain.NewNode(newID, parentID, src.Title)
	// reserve the slot so parents precede their descendants
	idx := len(c.nodes)
	c.nodes = append(c.nodes, domain.Node{})
	for _, el := range src.Elements {
		cp, nested := c.element(el, src, newID)
		out.Elements = append(out.Elements, cp)
		if nested {
			out.Children[cp.ID] = cp.ID
		}
	}
	c.nodes[idx] = *out
}

// DeepCopy clones the element found in sourceNodeID, and its nested subtree,
// giving every element, node and blob a new id. newParentNodeID becomes the
// parent of the copied top-level nested node.
func (d *Document) DeepCopy(elementID, sourceNodeID, newParentNodeID string) (Copy, bool) {
	src, ok := d.nodes[sourceNodeID]
	if !ok {
		return Copy{}, false
	}
	i := src.IndexOf(elementID)
	if i < 0 {
		return Copy{}, false
	}
	return d.copyFrom(src.Elements[i], src, newParentNodeID, d.Node), true
}

// CopyCard clones an inbox card's element and nodes with fresh ids.
func (d *Document) CopyCard(card domain.InboxCard, newParentNodeID string) Copy {
	index := make(map[string]*domain.Node, len(card.Nodes))
	for i := range card.Nodes {
		index[card.Nodes[i].ID] = &card.Nodes[i]
	}
	holder := domain.NewNode("", "", "")
	if _, ok := index[card.Element.ID]; ok {
		holder.Children[card.Element.ID] = card.Element.ID
	}
	lookup := func(id string) (*domain.Node, bool) {
		n, ok := index[id]
		return n, ok
	}
	return d.copyFrom(card.Element, holder, newParentNodeID, lookup)
}

func (d *Document) copyFrom(el domain.Element, src *domain.Node, newParentNodeID string, lookup func(string) (*domain.Node, bool)) Copy {
	c := &copier{lookup: lookup, newID: d.newID, blobs: map[string]string{}}
	out, _ := c.element(el, src, newParentNodeID)
	return Copy{Element: out, Nodes: c.nodes, Blobs: c.blobs}
}

// InsertCopy places a copy into the destination node.
func (d *Document) InsertCopy(destNodeID string, cp Copy) error {
	dest, ok := d.nodes[destNodeID]
	if !ok {
		return domain.NotFoundError{Kind: "node", ID: destNodeID}
	}
	if err := d.InsertElement(destNodeID, cp.Element, -1); err != nil {
		return err
	}
	d.putNodes(cp.Nodes)
	if _, ok := d.nodes[cp.Element.ID]; ok && len(cp.Nodes) > 0 {
		dest.Children[cp.Element.ID] = cp.Element.ID
	}
	return nil
}
