package ports

import "context"

// CheckpointStore persists encoded checkpoints by key.
// This is what makes a suspended run durable: "Passivate & Restore".
//
// Every call acquires and releases its own underlying handle (file, bolt
// transaction, SQL statement, Redis command). Stores do not serialize
// concurrent writers of the same key; see session.Manager for that.
type CheckpointStore interface {
	// Put stores data under key, replacing any previous checkpoint.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the data stored under key.
	// Returns domain.ErrCheckpointNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the checkpoint stored under key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all stored checkpoints.
	List(ctx context.Context) ([]string, error)
}
