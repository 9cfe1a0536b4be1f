package document

import (
	"slices"

	"nestboard/internal/domain"
)

// Inbox returns a copy of the inbox cards, oldest first.
func (d *Document) Inbox() []domain.InboxCard {
	out := make([]domain.InboxCard, len(d.state.Inbox))
	for i := range d.state.Inbox {
		out[i] = d.state.Inbox[i].Clone()
	}
	return out
}

// InboxCard returns the card with the given id.
func (d *Document) InboxCard(id string) (domain.InboxCard, bool) {
	i := d.state.InboxIndex(id)
	if i < 0 {
		return domain.InboxCard{}, false
	}
	return d.state.Inbox[i].Clone(), true
}

// InsertInboxCard puts the card at index, or appends when index is out of range.
func (d *Document) InsertInboxCard(card domain.InboxCard, index int) {
	card = card.Clone()
	if index < 0 || index > len(d.state.Inbox) {
		d.state.Inbox = append(d.state.Inbox, card)
	} else {
		d.state.Inbox = slices.Insert(d.state.Inbox, index, card)
	}
	d.markState()
}

// RemoveInboxCard removes a card and returns it with its former position.
func (d *Document) RemoveInboxCard(id string) (domain.InboxCard, int, bool) {
	i := d.state.InboxIndex(id)
	if i < 0 {
		return domain.InboxCard{}, -1, false
	}
	card := d.state.Inbox[i]
	d.state.Inbox = slices.Delete(d.state.Inbox, i, i+1)
	d.markState()
	return card, i, true
}

// CardImageIDs returns every blob referenced by an inbox card.
func CardImageIDs(card domain.InboxCard) []string {
	var ids []string
	add := func(el domain.Element) {
		if el.IsImage() && el.ImageDataID != "" && !slices.Contains(ids, el.ImageDataID) {
			ids = append(ids, el.ImageDataID)
		}
	}
	add(card.Element)
	for _, n := range card.Nodes {
		for _, el := range n.Elements {
			add(el)
		}
	}
	return ids
}
