/*
Package session serializes access to checkpoint keys.

A CheckpointStore does not protect a key against concurrent writers. The
Manager wraps a store with a per-key, reference-counted local mutex and,
optionally, a DistributedLocker so that two processes never resume the same
checkpoint at once.
*/
package session
