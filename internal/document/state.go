package document

import (
	"context"
	"slices"

	"nestboard/internal/blobgc"
	"nestboard/internal/domain"
)

// DefaultQuickLinkTTL is how many edits a quick link stays valid.
const DefaultQuickLinkTTL = 50

// Advance ticks the edit clock once, then sweeps due blobs and expired quick links.
// It returns the new counter value.
func (d *Document) Advance(ctx context.Context) int {
	d.state.EditCounter++
	d.markState()
	d.gc.Sweep(ctx, d.port, d.state)
	d.expireQuickLinks()
	return d.state.EditCounter
}

// QueueBlobs schedules blobs for deferred deletion.
func (d *Document) QueueBlobs(ids []string) {
	if d.gc.Enqueue(d.state, ids) > 0 {
		d.markState()
	}
}

// UnqueueBlobs takes blobs off the deletion queue because they are live again.
func (d *Document) UnqueueBlobs(ids []string) int {
	n := blobgc.Dequeue(d.state, ids)
	if n > 0 {
		d.markState()
	}
	return n
}

// IsBlobQueued reports whether a blob is waiting for deferred deletion.
func (d *Document) IsBlobQueued(id string) bool {
	return blobgc.IsPending(d.state, id)
}

// PendingDeletions returns a copy of the deletion queue.
func (d *Document) PendingDeletions() []domain.PendingDeletion {
	return slices.Clone(d.state.PendingDeletions)
}

func (d *Document) IsLocked(id string) bool   { return d.state.IsLocked(id) }
func (d *Document) IsPriority(id string) bool { return d.state.IsPriority(id) }

// SetLocked adds or removes id from the locked set. Returns whether it changed.
func (d *Document) SetLocked(id string, locked bool) bool {
	return d.setMember(&d.state.LockedIDs, id, locked)
}

// SetPriority adds or removes id from the priority set.
func (d *Document) SetPriority(id string, priority bool) bool {
	return d.setMember(&d.state.PriorityIDs, id, priority)
}

func (d *Document) setMember(set *[]string, id string, on bool) bool {
	has := slices.Contains(*set, id)
	switch {
	case on && !has:
		*set = append(*set, id)
	case !on && has:
		*set = slices.DeleteFunc(*set, func(v string) bool { return v == id })
	default:
		return false
	}
	d.markState()
	return true
}

// PriorityElements returns the priority ids that still resolve to an element.
func (d *Document) PriorityElements() []string {
	var out []string
	for _, id := range d.state.PriorityIDs {
		if _, _, ok := d.FindElementGlobally(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// AddQuickLink bookmarks a node for ttl edits. An existing link to the same
// node is replaced.
func (d *Document) AddQuickLink(nodeID string, ttl int) (domain.QuickLink, bool) {
	n, ok := d.nodes[nodeID]
	if !ok {
		return domain.QuickLink{}, false
	}
	if ttl <= 0 {
		ttl = DefaultQuickLinkTTL
	}
	link := domain.QuickLink{NodeID: nodeID, Title: n.Title, ExpiresAt: d.state.EditCounter + ttl}
	d.state.QuickLinks = slices.DeleteFunc(d.state.QuickLinks, func(q domain.QuickLink) bool { return q.NodeID == nodeID })
	d.state.QuickLinks = append(d.state.QuickLinks, link)
	d.markState()
	return link, true
}

// RemoveQuickLink drops the link to nodeID.
func (d *Document) RemoveQuickLink(nodeID string) bool {
	before := len(d.state.QuickLinks)
	d.state.QuickLinks = slices.DeleteFunc(d.state.QuickLinks, func(q domain.QuickLink) bool { return q.NodeID == nodeID })
	if len(d.state.QuickLinks) == before {
		return false
	}
	d.markState()
	return true
}

// QuickLinks returns the live links.
func (d *Document) QuickLinks() []domain.QuickLink {
	return slices.Clone(d.state.QuickLinks)
}

func (d *Document) expireQuickLinks() {
	now := d.state.EditCounter
	d.state.QuickLinks = slices.DeleteFunc(d.state.QuickLinks, func(q domain.QuickLink) bool {
		return q.ExpiresAt <= now
	})
}

func (d *Document) dropQuickLinks(nodeIDs []string) []domain.QuickLink {
	if len(nodeIDs) == 0 {
		return nil
	}
	var dropped []domain.QuickLink
	d.state.QuickLinks = slices.DeleteFunc(d.state.QuickLinks, func(q domain.QuickLink) bool {
		if slices.Contains(nodeIDs, q.NodeID) {
			dropped = append(dropped, q)
			return true
		}
		return false
	})
	return dropped
}

// NeedsBackupReminder reports whether interval edits have passed since the
// last backup checkpoint.
func (d *Document) NeedsBackupReminder(interval int) bool {
	if interval <= 0 {
		return false
	}
	return d.state.EditCounter-d.state.LastBackupCounter >= interval
}

// MarkBackedUp moves the backup checkpoint to the current edit counter.
func (d *Document) MarkBackedUp() {
	d.state.LastBackupCounter = d.state.EditCounter
	d.markState()
}

func (d *Document) Preferences() domain.Preferences { return d.state.Preferences }

func (d *Document) SetPreferences(p domain.Preferences) {
	if p.GridSize <= 0 {
		p.GridSize = d.state.Preferences.GridSize
	}
	d.state.Preferences = p
	d.markState()
}

func (d *Document) Feature(name string) bool { return d.state.Features[name] }

func (d *Document) SetFeature(name string, on bool) {
	d.state.Features[name] = on
	d.markState()
}
