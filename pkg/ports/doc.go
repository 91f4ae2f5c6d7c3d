/*
Package ports defines the driven ports (interfaces) of the passivate engine.

These interfaces decouple the interpreter from the storage it passivates into,
so the same checkpoint can live in memory, on disk, in Bolt, SQLite or Redis.

# Key Interfaces

  - CheckpointStore: durable put/get of encoded checkpoints by key.
  - DistributedLocker: serializes access to one checkpoint key across replicas.

RunCheckpointStoreContract is the shared test suite every store adapter runs.
*/
package ports
