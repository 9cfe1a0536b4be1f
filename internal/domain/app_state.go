package domain

import (
	"slices"
	"time"
)

// AppStateID is the reserved key of the AppState record in the nodes store.
const AppStateID = "appState"

// AppState is the singleton record persisted next to the document nodes.
type AppState struct {
	ID                string            `json:"id"`
	EditCounter       int               `json:"editCounter"`
	LastBackupCounter int               `json:"lastBackupCounter"`
	LockedIDs         []string          `json:"lockedIds"`
	PriorityIDs       []string          `json:"priorityIds"`
	QuickLinks        []QuickLink       `json:"quickLinks"`
	Inbox             []InboxCard       `json:"inbox"`
	Preferences       Preferences       `json:"preferences"`
	Features          map[string]bool   `json:"features,omitempty"`
	PendingDeletions  []PendingDeletion `json:"pendingDeletions"`
}

// QuickLink is a temporary bookmark to a node that expires after a number of edits.
type QuickLink struct {
	NodeID    string `json:"nodeId"`
	Title     string `json:"title"`
	ExpiresAt int    `json:"expiresAt"`
}

// InboxCard is a card detached from the canvas, waiting to be placed again.
// Nodes holds the card's nested subtree verbatim (ids unchanged).
type InboxCard struct {
	ID         string    `json:"id"`
	OriginalID string    `json:"originalId"`
	Element    Element   `json:"element"`
	Nodes      []Node    `json:"nodes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone deep-copies the card.
func (c InboxCard) Clone() InboxCard {
	out := c
	out.Element = c.Element.Clone()
	out.Nodes = make([]Node, len(c.Nodes))
	for i := range c.Nodes {
		out.Nodes[i] = *c.Nodes[i].Clone()
	}
	return out
}

// PendingDeletion schedules a blob for removal once the edit counter reaches DeleteAt.
type PendingDeletion struct {
	ImageID  string `json:"imageId"`
	DeleteAt int    `json:"deleteAtCounter"`
}

// Preferences are the grid and layout settings of the canvas.
type Preferences struct {
	GridSize   int  `json:"gridSize"`
	SnapToGrid bool `json:"snapToGrid"`
	ShowInbox  bool `json:"showInbox"`
	ShowGrid   bool `json:"showGrid"`
}

// NewAppState returns the state of a fresh installation.
func NewAppState() *AppState {
	return &AppState{
		ID:               AppStateID,
		LockedIDs:        []string{},
		PriorityIDs:      []string{},
		QuickLinks:       []QuickLink{},
		Inbox:            []InboxCard{},
		Preferences:      Preferences{GridSize: 20},
		Features:         map[string]bool{},
		PendingDeletions: []PendingDeletion{},
	}
}

// Normalize fills collections left nil by decoding an older record.
func (s *AppState) Normalize() {
	s.ID = AppStateID
	if s.LockedIDs == nil {
		s.LockedIDs = []string{}
	}
	if s.PriorityIDs == nil {
		s.PriorityIDs = []string{}
	}
	if s.QuickLinks == nil {
		s.QuickLinks = []QuickLink{}
	}
	if s.Inbox == nil {
		s.Inbox = []InboxCard{}
	}
	if s.Features == nil {
		s.Features = map[string]bool{}
	}
	if s.PendingDeletions == nil {
		s.PendingDeletions = []PendingDeletion{}
	}
	if s.Preferences.GridSize <= 0 {
		s.Preferences.GridSize = 20
	}
}

func (s *AppState) IsLocked(id string) bool   { return slices.Contains(s.LockedIDs, id) }
func (s *AppState) IsPriority(id string) bool { return slices.Contains(s.PriorityIDs, id) }

// Forget removes ids from every membership set and returns the ids that
// were locked and prioritized.
func (s *AppState) Forget(ids ...string) (locked, priority []string) {
	s.LockedIDs = slices.DeleteFunc(s.LockedIDs, func(v string) bool {
		if slices.Contains(ids, v) {
			locked = append(locked, v)
			return true
		}
		return false
	})
	s.PriorityIDs = slices.DeleteFunc(s.PriorityIDs, func(v string) bool {
		if slices.Contains(ids, v) {
			priority = append(priority, v)
			return true
		}
		return false
	})
	return locked, priority
}

// InboxIndex returns the position of the inbox card with the given id, or -1.
func (s *AppState) InboxIndex(cardID string) int {
	return slices.IndexFunc(s.Inbox, func(c InboxCard) bool { return c.ID == cardID })
}

// Clone deep-copies the state.
func (s *AppState) Clone() *AppState {
	out := *s
	out.LockedIDs = slices.Clone(s.LockedIDs)
	out.PriorityIDs = slices.Clone(s.PriorityIDs)
	out.QuickLinks = slices.Clone(s.QuickLinks)
	out.PendingDeletions = slices.Clone(s.PendingDeletions)
	out.Inbox = make([]InboxCard, len(s.Inbox))
	for i := range s.Inbox {
		out.Inbox[i] = s.Inbox[i].Clone()
	}
	out.Features = make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		out.Features[k] = v
	}
	return &out
}
