// Package blobgc defers physical deletion of orphaned image blobs for a number
// of edits, so that undoing a delete can resurrect them cheaply.
package blobgc

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

// DefaultDelay is the number of edits a queued blob survives.
const DefaultDelay = 10

// Queue schedules blob deletions in AppState.PendingDeletions.
type Queue struct {
	delay  int
	logger zerolog.Logger
}

func New(delay int, logger zerolog.Logger) *Queue {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Queue{delay: delay, logger: logger}
}

func (q *Queue) Delay() int { return q.delay }

// Enqueue schedules ids for deletion at state.EditCounter + delay. An id that
// is already queued gets the later deadline. Returns the number of entries touched.
func (q *Queue) Enqueue(state *domain.AppState, ids []string) int {
	deleteAt := state.EditCounter + q.delay
	n := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		n++
		if i := slices.IndexFunc(state.PendingDeletions, func(p domain.PendingDeletion) bool { return p.ImageID == id }); i >= 0 {
			state.PendingDeletions[i].DeleteAt = deleteAt
			continue
		}
		state.PendingDeletions = append(state.PendingDeletions, domain.PendingDeletion{ImageID: id, DeleteAt: deleteAt})
	}
	if n > 0 {
		q.logger.Debug().Strs("ids", ids).Int("deleteAt", deleteAt).Msg("blobs queued for deletion")
	}
	return n
}

// Dequeue removes ids from the queue because they are live again.
func Dequeue(state *domain.AppState, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	before := len(state.PendingDeletions)
	state.PendingDeletions = slices.DeleteFunc(state.PendingDeletions, func(p domain.PendingDeletion) bool {
		return slices.Contains(ids, p.ImageID)
	})
	return before - len(state.PendingDeletions)
}

// IsPending reports whether id is queued.
func IsPending(state *domain.AppState, id string) bool {
	return slices.ContainsFunc(state.PendingDeletions, func(p domain.PendingDeletion) bool { return p.ImageID == id })
}

// Sweep deletes every blob whose deadline has passed. Entries whose delete fails
// stay queued and are retried on the next sweep. Returns the swept ids.
func (q *Queue) Sweep(ctx context.Context, port storage.Port, state *domain.AppState) []string {
	var swept []string
	kept := state.PendingDeletions[:0]
	for _, p := range state.PendingDeletions {
		if p.DeleteAt > state.EditCounter {
			kept = append(kept, p)
			continue
		}
		if err := port.Delete(ctx, storage.StoreBlobs, p.ImageID); err != nil {
			q.logger.Warn().Err(err).Str("blob", p.ImageID).Msg("deferred blob delete failed, will retry")
			kept = append(kept, p)
			continue
		}
		swept = append(swept, p.ImageID)
	}
	state.PendingDeletions = kept
	if len(swept) > 0 {
		q.logger.Debug().Strs("ids", swept).Int("counter", state.EditCounter).Msg("swept blobs")
	}
	return swept
}
