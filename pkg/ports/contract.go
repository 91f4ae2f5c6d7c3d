package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Put and Get", func(t *testing.T) {
		data := []byte(`{"format_version":1,"tree_id":"t"}`)

		require.NoError(t, store.Put(ctx, key, data), "Put should not return error")

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, data, loaded)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("first")))
		require.NoError(t, store.Put(ctx, key, []byte("second")))

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)
	})

	t.Run("Stored Bytes Are Isolated", func(t *testing.T) {
		data := []byte("original")
		require.NoError(t, store.Put(ctx, key, data))
		data[0] = 'X'

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), loaded)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("data")))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "Get after Delete should return ErrCheckpointNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of a missing key should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Put(ctx, id1, []byte("one")))
		require.NoError(t, store.Put(ctx, id2, []byte("two")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})

	t.Run("List Includes Reserved-Looking Keys", func(t *testing.T) {
		ids := []string{"tmp-" + key, "index", "lock:" + key}
		for _, id := range ids {
			require.NoError(t, store.Put(ctx, id, []byte(id)))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			assert.Contains(t, keys, id)
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []byte(id), got)
		}
	})

	t.Run("Independent Keys Concurrently", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				k := key + "-concurrent-" + string(rune('a'+i))
				assert.NoError(t, store.Put(ctx, k, []byte{byte(i)}))
				got, err := store.Get(ctx, k)
				assert.NoError(t, err)
				assert.Equal(t, []byte{byte(i)}, got)
				assert.NoError(t, store.Delete(ctx, k))
			}(i)
		}
		wg.Wait()
	})
}
