package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// RootID is the permanent top-level node.
	RootID = "root"

	DefaultTitle = "Untitled"
	ImageTitle   = "Image"

	titleMaxRunes = 30
)

// Node is one level of the nested canvas. A child node exists for an element
// only once the user has navigated into it; its ID equals that element's ID.
type Node struct {
	ID       string            `json:"id"`
	ParentID string            `json:"parentId,omitempty"`
	Title    string            `json:"title"`
	Elements []Element         `json:"elements"`
	Children map[string]string `json:"children"` // element id -> node id
}

// NewNode returns an empty node with initialised collections.
func NewNode(id, parentID, title string) *Node {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return &Node{
		ID:       id,
		ParentID: parentID,
		Title:    title,
		Elements: []Element{},
		Children: map[string]string{},
	}
}

// IsEmpty reports whether the node has neither elements nor children.
func (n *Node) IsEmpty() bool {
	return len(n.Elements) == 0 && len(n.Children) == 0
}

// IndexOf returns the position of the element with the given id, or -1.
func (n *Node) IndexOf(id string) int {
	for i := range n.Elements {
		if n.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	out := &Node{
		ID:       n.ID,
		ParentID: n.ParentID,
		Title:    n.Title,
		Elements: make([]Element, len(n.Elements)),
		Children: make(map[string]string, len(n.Children)),
	}
	for i := range n.Elements {
		out.Elements[i] = n.Elements[i].Clone()
	}
	for k, v := range n.Children {
		out.Children[k] = v
	}
	return out
}

// Normalize fills nil collections left by decoding.
func (n *Node) Normalize() {
	if n.Elements == nil {
		n.Elements = []Element{}
	}
	if n.Children == nil {
		n.Children = map[string]string{}
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle
	}
}

// TruncateTitle derives a node title from card text: first line, trimmed,
// capped at a fixed rune count, "Untitled" when blank.
func TruncateTitle(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if text == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(text) <= titleMaxRunes {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:titleMaxRunes])) + "..."
}
