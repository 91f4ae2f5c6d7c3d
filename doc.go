/*
Package passivate is a resumable statement-tree interpreter with durable checkpoints.

A business process is described as an immutable tree of statements: Actions
that call named capabilities, Conditionals, Loops over items drawn from the
carried parameter, and Sequences of steps. The interpreter walks the tree
and keeps all of its progress in a Cursor, a stack of small frames from the
root to the innermost active container.

# Passivate & Restore

At any boundary between two steps of a container a run may be suspended,
either because a capability called SuspendHere, the host's SuspendPolicy
asked for it, or the context was cancelled. Suspension yields a Checkpoint
holding only inert data (tree id, cursor frames, parameter) which is encoded
by package checkpoint and kept in any ports.CheckpointStore. Resuming
re-binds behavior from the tree and the capability registry and continues
exactly where the run stopped: loops neither repeat nor skip items, and a
conditional never re-evaluates its predicate.

# Usage

	reg := registry.NewRegistry()
	reg.Register("send-confirmation", func(ctx context.Context, param any) error {
		item := param.(string)
		return mailer.Send(ctx, item)
	})

	tree := dsl.MustTree[Order]("order-confirmation",
		dsl.If(func(ctx context.Context, o Order) (bool, error) { return o.VIP, nil },
			dsl.Each(func(ctx context.Context, o Order) ([]string, error) { return o.Items, nil },
				dsl.Do("send-confirmation"))))

	eng, err := passivate.New(
		passivate.WithRegistry(reg),
		passivate.WithTrees(tree),
		passivate.WithStore(file.New("")),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Runs until completion or suspension; a suspended run is persisted under the key.
	out, err := eng.Start(ctx, "order-42", "order-confirmation", order)

	// Later, possibly in another process:
	out, err = eng.Continue(ctx, "order-42")

Checkpoints can be stored on disk (pkg/adapters/file), in Redis, bbolt or
SQLite, and wrapped with encryption or metrics middleware
(pkg/persistence/middleware).
*/
package passivate
