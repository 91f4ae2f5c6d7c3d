package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/passivate/pkg/adapters/bolt"
	"github.com/aretw0/passivate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.CheckpointStore = (*bolt.Store)(nil)

func open(t *testing.T, path string, opts ...bolt.Option) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(path, opts...)
	require.NoError(t, err)
	return store
}

func TestBoltStore_Contract(t *testing.T) {
	store := open(t, filepath.Join(t.TempDir(), "checkpoints.db"))
	defer store.Close()

	ports.RunCheckpointStoreContract(t, store)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx := context.Background()

	store := open(t, path, bolt.WithBucket("orders"))
	require.NoError(t, store.Put(ctx, "order-7", []byte(`{"tree_id":"t"}`)))
	require.NoError(t, store.Close())

	store = open(t, path, bolt.WithBucket("orders"))
	defer store.Close()

	data, err := store.Get(ctx, "order-7")
	require.NoError(t, err)
	assert.Equal(t, `{"tree_id":"t"}`, string(data))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-7"}, keys)
}
