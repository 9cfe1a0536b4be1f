// Package navigation tracks where the user is in the nested canvas and
// converts locations to and from shareable deep links.
package navigation

import (
	"github.com/rs/zerolog"

	"nestboard/internal/domain"
)

// Tree is the part of the document the navigator reads.
type Tree interface {
	Node(id string) (*domain.Node, bool)
	PathTo(id string) ([]string, bool)
	PathToParentOf(elementID string) ([]string, bool)
	EnsureChildNode(parentID, elementID string) (*domain.Node, bool, error)
	Walk(nodeID string, fn func(n *domain.Node))
}

// Entry is one breadcrumb.
type Entry struct {
	NodeID string `json:"nodeId"`
	Title  string `json:"title"`
}

// Stack is the root-to-current chain of nodes. It always holds at least root.
type Stack struct {
	entries []Entry
	logger  zerolog.Logger
}

func NewStack(logger zerolog.Logger) *Stack {
	s := &Stack{logger: logger}
	s.Reset()
	return s
}

func rootEntry() Entry {
	return Entry{NodeID: domain.RootID, Title: "Home"}
}

// Reset returns to root.
func (s *Stack) Reset() {
	s.entries = []Entry{rootEntry()}
}

// Current is the node being looked at.
func (s *Stack) Current() Entry { return s.entries[len(s.entries)-1] }

// CurrentID is the id of the node being looked at.
func (s *Stack) CurrentID() string { return s.Current().NodeID }

func (s *Stack) Depth() int { return len(s.entries) }

// Entries returns a copy of the stack, root first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// At returns the entry at index i.
func (s *Stack) At(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// IndexOf returns the stack position of nodeID, or -1.
func (s *Stack) IndexOf(nodeID string) int {
	for i, e := range s.entries {
		if e.NodeID == nodeID {
			return i
		}
	}
	return -1
}

// Enter descends into an element of the current node, creating its nested
// node on first visit.
func (s *Stack) Enter(tree Tree, elementID string) (Entry, error) {
	child, _, err := tree.EnsureChildNode(s.CurrentID(), elementID)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{NodeID: child.ID, Title: child.Title}
	s.entries = append(s.entries, e)
	return e, nil
}

// Back pops one level. It fails at root.
func (s *Stack) Back() bool {
	if len(s.entries) <= 1 {
		return false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// ToIndex truncates the stack so that entry i is current.
func (s *Stack) ToIndex(i int) bool {
	if i < 0 || i >= len(s.entries) {
		return false
	}
	s.entries = s.entries[:i+1]
	return true
}

// ToNode makes targetID current. A target already on the stack is reached by
// truncation; otherwise the stack is rebuilt from a root-to-target search.
// On failure the stack falls back to root.
func (s *Stack) ToNode(tree Tree, targetID string) bool {
	if i := s.IndexOf(targetID); i >= 0 {
		return s.ToIndex(i)
	}
	path, ok := tree.PathTo(targetID)
	if !ok {
		s.logger.Debug().Str("node", targetID).Msg("navigation target not found, returning to root")
		s.Reset()
		return false
	}
	return s.rebuild(tree, path)
}

// ToParentOf navigates to the node that holds elementID.
func (s *Stack) ToParentOf(tree Tree, elementID string) bool {
	path, ok := tree.PathToParentOf(elementID)
	if !ok {
		return false
	}
	return s.rebuild(tree, path)
}

func (s *Stack) rebuild(tree Tree, path []string) bool {
	entries := make([]Entry, 0, len(path))
	for i, id := range path {
		if i == 0 {
			entries = append(entries, rootEntry())
			continue
		}
		n, ok := tree.Node(id)
		if !ok || (n.ParentID != "" && n.ParentID != path[i-1]) {
			s.logger.Warn().Str("node", id).Int("depth", i).Msg("broken navigation chain, returning to root")
			s.Reset()
			return false
		}
		entries = append(entries, Entry{NodeID: id, Title: n.Title})
	}
	s.entries = entries
	return true
}

// RefreshTitle updates the breadcrumb for the node nested under elementID.
func (s *Stack) RefreshTitle(elementID, title string) bool {
	changed := false
	for i := range s.entries {
		if s.entries[i].NodeID == elementID && s.entries[i].Title != title {
			s.entries[i].Title = title
			changed = true
		}
	}
	return changed
}

// Prune cuts the stack at the first node that no longer exists, so the
// current location is always valid after a delete or undo.
func (s *Stack) Prune(tree Tree) bool {
	for i := 1; i < len(s.entries); i++ {
		if _, ok := tree.Node(s.entries[i].NodeID); !ok {
			s.entries = s.entries[:i]
			return true
		}
	}
	return false
}
