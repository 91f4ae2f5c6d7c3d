package session_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/passivate/pkg/adapters/memory"
	"github.com/aretw0/passivate/pkg/adapters/redis"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterUpdate is a read-modify-write that loses updates without locking.
func counterUpdate(ctx context.Context, mgr *session.Manager, key string) error {
	return mgr.WithLock(ctx, key, func(ctx context.Context) error {
		store := mgr.Store()
		n := 0
		data, err := store.Get(ctx, key)
		switch {
		case err == nil:
			n, _ = strconv.Atoi(string(data))
		case err != domain.ErrCheckpointNotFound:
			return err
		}
		time.Sleep(time.Millisecond)
		return store.Put(ctx, key, []byte(strconv.Itoa(n+1)))
	})
}

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, counterUpdate(ctx, mgr, "counter"))
		}()
	}
	wg.Wait()

	data, err := mgr.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "20", string(data))
}

func TestManager_DistributedLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := memory.NewStore()
	locker := redis.NewLocker(client, "test:")

	// Two managers share a store, as two replicas would.
	a := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	b := session.NewManager(store, session.WithLocker(locker))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, counterUpdate(ctx, a, "shared")) }()
		go func() { defer wg.Done(); assert.NoError(t, counterUpdate(ctx, b, "shared")) }()
	}
	wg.Wait()

	data, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "8", string(data))
	assert.False(t, mr.Exists("test:lock:shared"))
}

func TestManager_LockHonorsContext(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLocker(client, "test:")
	unlock, err := locker.Lock(context.Background(), "busy", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	called := false
	err = mgr.WithLock(ctx, "busy", func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
