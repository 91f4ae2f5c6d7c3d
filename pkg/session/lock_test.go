package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/passivate/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("order-%d", i)
		_ = mgr.Put(ctx, key, []byte("{}"))
		_ = mgr.Delete(ctx, key)
	}

	assert.Empty(t, mgr.locks, "locks must be released once unused")
}
