package memory_test

import (
	"testing"

	"github.com/aretw0/passivate/pkg/adapters/memory"
	"github.com/aretw0/passivate/pkg/ports"
)

var _ ports.CheckpointStore = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunCheckpointStoreContract(t, store)
}
