package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store names one of the logical record collections.
type Store string

const (
	StoreNodes    Store = "nodes"
	StoreBlobs    Store = "blobs"
	StoreSettings Store = "settings" // legacy, read once on first load
)

// Stores lists every logical store in a stable order.
var Stores = []Store{StoreNodes, StoreBlobs, StoreSettings}

// Record is a keyed payload. Data is the JSON encoding of the stored value.
type Record struct {
	ID   string
	Data []byte
}

// Port is the key-value capability the document engine persists through.
// Get reports a missing key with found == false and a nil error.
type Port interface {
	Get(ctx context.Context, store Store, id string) (rec Record, found bool, err error)
	Put(ctx context.Context, store Store, rec Record) error
	Delete(ctx context.Context, store Store, id string) error
	ListKeys(ctx context.Context, store Store) ([]string, error)
	Clear(ctx context.Context, store Store) error
	Close() error
}

// GetJSON loads the record id from store and decodes it into v.
func GetJSON(ctx context.Context, p Port, store Store, id string, v any) (bool, error) {
	rec, ok, err := p.Get(ctx, store, id)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", store, id, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under id.
func PutJSON(ctx context.Context, p Port, store Store, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", store, id, err)
	}
	return p.Put(ctx, store, Record{ID: id, Data: data})
}

func validStore(store Store) error {
	switch store {
	case StoreNodes, StoreBlobs, StoreSettings:
		return nil
	}
	return fmt.Errorf("unknown store %q", store)
}
