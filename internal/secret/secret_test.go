package secret_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestboard/internal/secret"
)

type failingStore struct{ secret.MemoryStore }

func (*failingStore) Get(string) ([]byte, error) { return nil, errors.New("locked") }

func TestEnvStore(t *testing.T) {
	t.Setenv("NESTBOARD_SECRET_STORAGE_PASSWORD", "hunter2")
	assert.Equal(t, "NESTBOARD_SECRET_STORAGE_PASSWORD", secret.EnvName(secret.KeyStoragePassword))

	v, err := secret.EnvStore{}.Get(secret.KeyStoragePassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(v))

	v, err = secret.EnvStore{}.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestChain_FirstHitWins(t *testing.T) {
	first, second := secret.NewMemoryStore(), secret.NewMemoryStore()
	require.NoError(t, second.Set("k", []byte("from-second")))
	chain := secret.Chain{first, second}

	v, err := chain.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-second", string(v))

	require.NoError(t, chain.Set("k", []byte("from-first")))
	v, err = chain.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-first", string(v))

	require.NoError(t, chain.Delete("k"))
	v, err = chain.Get("k")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestChain_PropagatesErrors(t *testing.T) {
	_, err := secret.Chain{&failingStore{}}.Get("k")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	store := secret.NewMemoryStore()
	require.NoError(t, store.Set(secret.KeyStoragePassword, []byte("stored")))

	v, err := secret.Resolve(store, secret.KeyStoragePassword, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", v)

	v, err = secret.Resolve(store, secret.KeyStoragePassword, "")
	require.NoError(t, err)
	assert.Equal(t, "stored", v)

	v, err = secret.Resolve(nil, secret.KeyStoragePassword, "")
	require.NoError(t, err)
	assert.Empty(t, v)
}
