package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is the in-process Port used when no engine is available and in tests.
type Memory struct {
	mu     sync.RWMutex
	stores map[Store]map[string][]byte
}

func NewMemory() *Memory {
	m := &Memory{stores: make(map[Store]map[string][]byte, len(Stores))}
	for _, s := range Stores {
		m.stores[s] = map[string][]byte{}
	}
	return m
}

func (m *Memory) Get(_ context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.stores[store][id]
	if !ok {
		return Record{}, false, nil
	}
	return Record{ID: id, Data: slices.Clone(data)}, true, nil
}

func (m *Memory) Put(_ context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store][rec.ID] = slices.Clone(rec.Data)
	return nil
}

func (m *Memory) Delete(_ context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores[store], id)
	return nil
}

func (m *Memory) ListKeys(_ context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.stores[store]))
	for k := range m.stores[store] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Clear(_ context.Context, store Store) error {
	if err := validStore(store); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store] = map[string][]byte{}
	return nil
}

func (m *Memory) Close() error { return nil }
