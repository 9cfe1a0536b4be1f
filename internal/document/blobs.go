package document

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"nestboard/internal/domain"
	"nestboard/internal/storage"
)

// Blob loads one blob.
func (d *Document) Blob(ctx context.Context, id string) (domain.Blob, bool, error) {
	var b domain.Blob
	found, err := storage.GetJSON(ctx, d.port, storage.StoreBlobs, id, &b)
	if err != nil || !found {
		return domain.Blob{}, false, err
	}
	b.ID = id
	return b, true, nil
}

// SaveBlob writes one blob.
func (d *Document) SaveBlob(ctx context.Context, b domain.Blob) error {
	if err := storage.PutJSON(ctx, d.port, storage.StoreBlobs, b.ID, b); err != nil {
		return fmt.Errorf("save blob: %w", err)
	}
	return nil
}

// HasBlob reports whether the blob is present in storage.
func (d *Document) HasBlob(ctx context.Context, id string) (bool, error) {
	_, found, err := d.port.Get(ctx, storage.StoreBlobs, id)
	return found, err
}

// forEachBlob runs fn over ids with bounded concurrency. Individual failures
// are logged and skipped; the batch never fails as a whole.
func (d *Document) forEachBlob(ctx context.Context, op string, ids []string, fn func(ctx context.Context, id string) error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.blobWorkers)
	for _, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				d.logger.Warn().Err(err).Str("blob", id).Str("op", op).Msg("blob batch item skipped")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// BackupBlobs reads the listed blobs into memory. Missing blobs are skipped.
func (d *Document) BackupBlobs(ctx context.Context, ids []string) map[string]domain.Blob {
	var mu sync.Mutex
	out := make(map[string]domain.Blob, len(ids))
	d.forEachBlob(ctx, "backup", ids, func(ctx context.Context, id string) error {
		b, found, err := d.Blob(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError{Kind: "blob", ID: id}
		}
		mu.Lock()
		out[id] = b
		mu.Unlock()
		return nil
	})
	return out
}

// RestoreBlobs writes backed-up blobs that are not already present.
func (d *Document) RestoreBlobs(ctx context.Context, backup map[string]domain.Blob) int {
	ids := make([]string, 0, len(backup))
	for id := range backup {
		ids = append(ids, id)
	}
	var (
		mu       sync.Mutex
		restored int
	)
	d.forEachBlob(ctx, "restore", ids, func(ctx context.Context, id string) error {
		exists, err := d.HasBlob(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := d.SaveBlob(ctx, backup[id]); err != nil {
			return err
		}
		mu.Lock()
		restored++
		mu.Unlock()
		return nil
	})
	return restored
}

// DuplicateBlobs copies each source blob to its mapped id. A missing source is
// logged and skipped. Returns how many blobs were written.
func (d *Document) DuplicateBlobs(ctx context.Context, mapping map[string]string) int {
	ids := make([]string, 0, len(mapping))
	for old := range mapping {
		ids = append(ids, old)
	}
	var (
		mu     sync.Mutex
		copied int
	)
	d.forEachBlob(ctx, "duplicate", ids, func(ctx context.Context, old string) error {
		b, found, err := d.Blob(ctx, old)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFoundError{Kind: "blob", ID: old}
		}
		b.ID = mapping[old]
		if err := d.SaveBlob(ctx, b); err != nil {
			return err
		}
		mu.Lock()
		copied++
		mu.Unlock()
		return nil
	})
	return copied
}

// DeleteBlobs removes blobs immediately, bypassing the deferred queue. Used to
// discard duplicates that were never visible to the user.
func (d *Document) DeleteBlobs(ctx context.Context, ids []string) {
	d.forEachBlob(ctx, "delete", ids, func(ctx context.Context, id string) error {
		return d.port.Delete(ctx, storage.StoreBlobs, id)
	})
}
