package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt is a Port over a bbolt file with one bucket per logical store.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, s := range Stores {
			if _, err := tx.CreateBucketIfNotExists([]byte(s)); err != nil {
				return fmt.Errorf("create bucket %s: %w", s, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// values are only valid for the life of the transaction
		data = slices.Clone(tx.Bucket([]byte(store)).Get([]byte(id)))
		return nil
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("get %s/%s: %w", store, id, err)
	}
	if data == nil {
		return Record{}, false, nil
	}
	return Record{ID: id, Data: data}, true, nil
}

func (b *Bolt) Put(_ context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(store)).Put([]byte(rec.ID), rec.Data); err != nil {
			return fmt.Errorf("put %s/%s: %w", store, rec.ID, err)
		}
		return nil
	})
}

func (b *Bolt) Delete(_ context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(store)).Delete([]byte(id))
	})
}

func (b *Bolt) ListKeys(_ context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	keys := []string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(store)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *Bolt) Clear(_ context.Context, store Store) error {
	if err := validStore(store); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(store)); err != nil {
			return fmt.Errorf("clear %s: %w", store, err)
		}
		_, err := tx.CreateBucket([]byte(store))
		return err
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
