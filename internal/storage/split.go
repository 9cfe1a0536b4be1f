package storage

import (
	"context"
	"errors"
)

// Split routes the blob store to one Port and every other store to another.
type Split struct {
	main  Port
	blobs Port
}

func NewSplit(main, blobs Port) *Split {
	return &Split{main: main, blobs: blobs}
}

func (s *Split) route(store Store) Port {
	if store == StoreBlobs {
		return s.blobs
	}
	return s.main
}

func (s *Split) Get(ctx context.Context, store Store, id string) (Record, bool, error) {
	return s.route(store).Get(ctx, store, id)
}

func (s *Split) Put(ctx context.Context, store Store, rec Record) error {
	return s.route(store).Put(ctx, store, rec)
}

func (s *Split) Delete(ctx context.Context, store Store, id string) error {
	return s.route(store).Delete(ctx, store, id)
}

func (s *Split) ListKeys(ctx context.Context, store Store) ([]string, error) {
	return s.route(store).ListKeys(ctx, store)
}

func (s *Split) Clear(ctx context.Context, store Store) error {
	return s.route(store).Clear(ctx, store)
}

func (s *Split) Close() error {
	return errors.Join(s.main.Close(), s.blobs.Close())
}
