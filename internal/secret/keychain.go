package secret

import (
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "nestboard"

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool.
type KeychainStore struct{}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

// KeychainAvailable reports whether the security tool is on PATH.
func KeychainAvailable() bool {
	_, err := exec.LookPath("security")
	return err == nil
}

// Set stores a secret, replacing any existing value.
func (k *KeychainStore) Set(key string, value []byte) error {
	_ = k.Delete(key)

	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get treats any lookup failure as a missing item. Exit code 44 is the
// documented not-found status.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	cmd := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

// Delete ignores errors since the item may not exist.
func (k *KeychainStore) Delete(key string) error {
	_ = exec.Command("security", "delete-generic-password",
		"-a", key,
		"-s", keychainService,
	).Run()
	return nil
}
