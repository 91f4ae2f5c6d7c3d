package passivate_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/pkg/adapters/file"
	"github.com/aretw0/passivate/pkg/adapters/memory"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/dsl"
	"github.com/aretw0/passivate/pkg/ports"
	"github.com/aretw0/passivate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID    string   `json:"id"`
	VIP   bool     `json:"vip"`
	Items []string `json:"items"`
}

type outbox struct {
	mu   sync.Mutex
	sent []string
	// failOn makes the named item fail once.
	failOn string
}

func (o *outbox) send(ctx context.Context, param any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	item := param.(string)
	if item == o.failOn {
		o.failOn = ""
		return errors.New("mail server down")
	}
	o.sent = append(o.sent, item)
	if item == "pause" {
		passivate.SuspendHere(ctx)
	}
	return nil
}

func (o *outbox) Sent() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.sent...)
}

func confirmationTree() *domain.Tree {
	return dsl.MustTree[order]("order-confirmation",
		dsl.When(func(o order) bool { return o.VIP },
			dsl.Each(func(_ context.Context, o order) ([]string, error) { return o.Items, nil },
				dsl.Do("send-confirmation"))))
}

func newEngine(t *testing.T, store ports.CheckpointStore, box *outbox, opts ...passivate.Option) *passivate.Engine {
	t.Helper()
	reg := registry.NewRegistry()
	reg.Register("send-confirmation", box.send)

	opts = append([]passivate.Option{
		passivate.WithRegistry(reg),
		passivate.WithTrees(confirmationTree()),
		passivate.WithStore(store),
	}, opts...)
	eng, err := passivate.New(opts...)
	require.NoError(t, err)
	return eng
}

func TestEngine_StartAndContinueAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	box := &outbox{}

	// First process: suspends after the capability asks for it.
	eng := newEngine(t, file.New(dir), box)
	out, err := eng.Start(ctx, "order-42", "order-confirmation", order{ID: "42", VIP: true, Items: []string{"a", "pause", "c"}})
	require.NoError(t, err)
	require.False(t, out.Completed())
	assert.Equal(t, []string{"a", "pause"}, box.Sent())

	rec, err := eng.Inspect(ctx, "order-42")
	require.NoError(t, err)
	assert.Equal(t, "order-confirmation", rec.TreeID)
	require.Len(t, rec.Frames, 2)
	assert.Equal(t, 2, rec.Frames[1].Next)

	// Second process: a fresh engine over the same directory.
	restarted := newEngine(t, file.New(dir), box)
	out, err = restarted.Continue(ctx, "order-42")
	require.NoError(t, err)
	assert.True(t, out.Completed())
	assert.Equal(t, []string{"a", "pause", "c"}, box.Sent())

	_, err = restarted.Inspect(ctx, "order-42")
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestEngine_CompletedStartLeavesNoCheckpoint(t *testing.T) {
	store := memory.NewStore()
	eng := newEngine(t, store, &outbox{})

	out, err := eng.Start(context.Background(), "k", "order-confirmation", order{VIP: false, Items: []string{"a"}})
	require.NoError(t, err)
	assert.True(t, out.Completed())

	keys, err := eng.Checkpoints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEngine_FailedContinueKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	box := &outbox{}
	eng := newEngine(t, memory.NewStore(), box, passivate.WithSuspendPolicy(passivate.SuspendAfter(1)))

	_, err := eng.Start(ctx, "k", "order-confirmation", order{VIP: true, Items: []string{"a", "b", "c"}})
	require.NoError(t, err)

	box.mu.Lock()
	box.failOn = "b"
	box.mu.Unlock()

	_, err = eng.Continue(ctx, "k")
	require.ErrorIs(t, err, domain.ErrActionFailed)

	rec, err := eng.Inspect(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Frames[1].Next)

	// Retrying the same key re-enters "b".
	out, err := eng.Continue(ctx, "k")
	require.NoError(t, err)
	assert.False(t, out.Completed())
	out, err = eng.Continue(ctx, "k")
	require.NoError(t, err)
	assert.True(t, out.Completed())
	assert.Equal(t, []string{"a", "b", "c"}, box.Sent())
}

func TestEngine_CancelledRunIsPersisted(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	reg := registry.NewRegistry()
	var sent []string
	reg.Register("send-confirmation", func(_ context.Context, param any) error {
		sent = append(sent, param.(string))
		cancel()
		return nil
	})
	eng, err := passivate.New(
		passivate.WithRegistry(reg),
		passivate.WithTrees(confirmationTree()),
		passivate.WithStore(store),
	)
	require.NoError(t, err)

	out, err := eng.Start(ctx, "k", "order-confirmation", order{VIP: true, Items: []string{"a", "b"}})
	require.NoError(t, err)
	assert.False(t, out.Completed())

	_, err = store.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, sent)
}

func TestEngine_ResumeAll(t *testing.T) {
	ctx := context.Background()
	box := &outbox{}
	eng := newEngine(t, memory.NewStore(), box,
		passivate.WithSuspendPolicy(passivate.SuspendAfter(1)),
		passivate.WithConcurrency(3),
	)

	for i := range 5 {
		key := fmt.Sprintf("order-%d", i)
		_, err := eng.Start(ctx, key, "order-confirmation", order{VIP: true, Items: []string{key + "/a", key + "/b"}})
		require.NoError(t, err)
	}

	results, err := eng.ResumeAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("order-%d", i), r.Key)
		require.NoError(t, r.Err)
		assert.True(t, r.Outcome.Completed())
	}
	assert.Len(t, box.Sent(), 10)

	keys, err := eng.Checkpoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEngine_ContinueUnknownTree(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	writer := newEngine(t, store, &outbox{}, passivate.WithSuspendPolicy(passivate.SuspendAfter(1)))
	_, err := writer.Start(ctx, "k", "order-confirmation", order{VIP: true, Items: []string{"a", "b"}})
	require.NoError(t, err)

	reader, err := passivate.New(passivate.WithStore(store))
	require.NoError(t, err)
	_, err = reader.Continue(ctx, "k")
	assert.ErrorIs(t, err, passivate.ErrUnknownTree)
	assert.ErrorIs(t, err, domain.ErrTreeMismatch)
}

func TestEngine_Construction(t *testing.T) {
	_, err := passivate.New(passivate.WithTrees(confirmationTree(), confirmationTree()))
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	_, err = passivate.New(passivate.WithTrees(domain.NewTree("empty", nil)))
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	eng, err := passivate.New(passivate.WithTrees(confirmationTree()))
	require.NoError(t, err)
	assert.Equal(t, []string{"order-confirmation"}, eng.Trees())

	_, err = eng.Start(context.Background(), "k", "order-confirmation", order{})
	assert.ErrorIs(t, err, passivate.ErrNoStore)
	_, err = eng.Continue(context.Background(), "k")
	assert.ErrorIs(t, err, passivate.ErrNoStore)
}

func TestEngine_StartUnknownTree(t *testing.T) {
	eng := newEngine(t, memory.NewStore(), &outbox{})
	_, err := eng.Start(context.Background(), "k", "nope", nil)
	assert.ErrorIs(t, err, passivate.ErrUnknownTree)
}

func TestEngine_RegisterWarnsWithoutParameterConstructor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := passivate.New(passivate.WithLogger(logger), passivate.WithTrees(confirmationTree()))
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	untyped := domain.NewTree("untyped", dsl.Do("send"))
	_, err = passivate.New(passivate.WithLogger(logger), passivate.WithTrees(untyped))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tree has no parameter constructor")
	assert.Contains(t, buf.String(), "tree=untyped")
}
