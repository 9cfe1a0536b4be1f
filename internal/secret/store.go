// Package secret resolves credentials for storage backends without keeping
// them in plain configuration.
package secret

import (
	"os"
	"strings"
	"sync"
)

// SecretStore stores sensitive values such as database passwords.
type SecretStore interface {
	Set(key string, value []byte) error

	// Get returns an empty slice and nil error when the key does not exist.
	Get(key string) ([]byte, error)

	Delete(key string) error
}

// KeyStoragePassword is the key holding the storage backend password.
const KeyStoragePassword = "storage-password"

// EnvStore reads secrets from NESTBOARD_SECRET_<KEY> variables. Dashes in the
// key become underscores. It is read-only.
type EnvStore struct{}

func EnvName(key string) string {
	return "NESTBOARD_SECRET_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func (EnvStore) Set(key string, value []byte) error { return os.Setenv(EnvName(key), string(value)) }

func (EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(EnvName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Delete(key string) error { return os.Unsetenv(EnvName(key)) }

// MemoryStore keeps secrets in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Chain reads from each store in order and returns the first hit. Writes go
// to the first store only.
type Chain []SecretStore

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Set(key, value)
}

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Delete(key string) error {
	for _, s := range c {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the environment backed by the keychain when the security
// tool is installed.
func Default() SecretStore {
	if KeychainAvailable() {
		return Chain{EnvStore{}, NewKeychainStore()}
	}
	return EnvStore{}
}

// Resolve returns value when set, otherwise the secret stored under key.
func Resolve(store SecretStore, key, value string) (string, error) {
	if value != "" || store == nil {
		return value, nil
	}
	v, err := store.Get(key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
