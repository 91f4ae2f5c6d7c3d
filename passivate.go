package passivate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/passivate/internal/logging"
	"github.com/aretw0/passivate/internal/runtime"
	"github.com/aretw0/passivate/pkg/checkpoint"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/ports"
	"github.com/aretw0/passivate/pkg/registry"
	"github.com/aretw0/passivate/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoStore is returned by keyed operations on an engine built without a store.
var ErrNoStore = errors.New("no checkpoint store configured")

// ErrUnknownTree is returned when a checkpoint names a tree the engine does
// not know. It matches domain.ErrTreeMismatch.
var ErrUnknownTree = fmt.Errorf("%w: unknown tree", domain.ErrTreeMismatch)

// Boundary describes a point where a run may be suspended.
type Boundary = runtime.Boundary

// SuspendPolicy lets the host request suspension at any boundary.
type SuspendPolicy = runtime.SuspendPolicy

// SuspendHere asks the run carried by ctx to suspend at the next boundary.
// Capabilities call it with the context they were invoked with. It reports
// false when ctx carries no run.
func SuspendHere(ctx context.Context) bool {
	return runtime.SuspendHere(ctx)
}

// SuspendAfter returns a policy that suspends once n actions have completed
// since the run (or resume) began.
func SuspendAfter(n int) SuspendPolicy {
	return func(_ context.Context, b Boundary) bool {
		return n > 0 && b.Actions >= n
	}
}

// NewKey returns a fresh checkpoint key.
func NewKey() string {
	return uuid.NewString()
}

// Engine is the high-level entry point of the library.
// It wraps the interpreter with a tree catalog and, when a store is
// configured, keyed passivation: Start persists a suspended run and Continue
// restores it.
type Engine struct {
	runtime  *runtime.Engine
	registry *registry.Registry
	sessions *session.Manager

	mu    sync.RWMutex
	trees map[string]*domain.Tree

	store       ports.CheckpointStore
	locker      ports.DistributedLocker
	pending     []*domain.Tree
	hooks       domain.LifecycleHooks
	policy      SuspendPolicy
	clock       func() time.Time
	logger      *slog.Logger
	concurrency int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry sets the capability registry actions are bound against.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithTrees adds trees to the catalog used to resume checkpoints by tree id.
func WithTrees(trees ...*domain.Tree) Option {
	return func(e *Engine) {
		e.pending = append(e.pending, trees...)
	}
}

// WithStore enables keyed passivation over store.
func WithStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes keyed operations across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSuspendPolicy sets a host-side suspension policy.
func WithSuspendPolicy(policy SuspendPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithClock overrides the time source used for checkpoint timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConcurrency bounds how many checkpoints ResumeAll restores at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// New initializes an Engine. Every tree passed through WithTrees is compiled
// here; an invalid tree or a duplicate tree id fails construction.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		trees:       make(map[string]*domain.Tree),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.concurrency < 1 {
		eng.concurrency = 1
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithSuspendPolicy(eng.policy),
	}
	if eng.clock != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithClock(eng.clock))
	}
	eng.runtime = runtime.NewEngine(eng.registry, runtimeOpts...)

	if eng.store != nil {
		sessOpts := []session.Option{session.WithLogger(eng.logger)}
		if eng.locker != nil {
			sessOpts = append(sessOpts, session.WithLocker(eng.locker))
		}
		eng.sessions = session.NewManager(eng.store, sessOpts...)
	}

	for _, t := range eng.pending {
		if err := eng.Register(t); err != nil {
			return nil, err
		}
	}
	eng.pending = nil

	return eng, nil
}

// Register compiles tree and adds it to the catalog.
func (e *Engine) Register(tree *domain.Tree) error {
	if err := tree.Compile(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.trees[tree.ID]; dup {
		return &domain.InvalidTreeError{Reason: fmt.Sprintf("tree '%s' is already registered", tree.ID)}
	}
	e.trees[tree.ID] = tree
	if tree.NewParameter == nil {
		e.logger.Warn("tree has no parameter constructor; resumed runs carry decoded JSON values", "tree", tree.ID)
	}
	return nil
}

// Tree returns the registered tree with the given id.
func (e *Engine) Tree(id string) (*domain.Tree, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.trees[id]
	return t, ok
}

// Trees returns the ids of the registered trees, sorted.
func (e *Engine) Trees() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.trees))
	for id := range e.trees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Registry returns the capability registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Run executes tree from its root with param.
func (e *Engine) Run(ctx context.Context, tree *domain.Tree, param any) (*domain.Outcome, error) {
	return e.runtime.Run(ctx, tree, param)
}

// Resume continues a suspended run of tree from cp.
func (e *Engine) Resume(ctx context.Context, tree *domain.Tree, cp *domain.Checkpoint) (*domain.Outcome, error) {
	return e.runtime.Resume(ctx, tree, cp)
}

// Start runs the registered tree treeID under key. A suspended run is
// persisted under key; a completed run leaves no checkpoint behind.
func (e *Engine) Start(ctx context.Context, key, treeID string, param any) (*domain.Outcome, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	tree, ok := e.Tree(treeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTree, treeID)
	}

	var out *domain.Outcome
	err := e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		out, err = e.runtime.Run(ctx, tree, param)
		if err != nil {
			return err
		}
		return e.settle(ctx, key, out)
	})
	return out, err
}

// Continue restores the checkpoint stored under key and resumes it.
// A new suspension supersedes the stored checkpoint and completion deletes
// it. On failure the stored checkpoint is left untouched, so the same key
// can be retried.
func (e *Engine) Continue(ctx context.Context, key string) (*domain.Outcome, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}

	var out *domain.Outcome
	err := e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		store := e.sessions.Store()
		data, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		rec, err := checkpoint.Unmarshal(data)
		if err != nil {
			return err
		}
		tree, ok := e.Tree(rec.TreeID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTree, rec.TreeID)
		}
		cp, err := rec.Checkpoint(tree.NewParameter)
		if err != nil {
			return err
		}

		out, err = e.runtime.Resume(ctx, tree, cp)
		if err != nil {
			return err
		}
		return e.settle(ctx, key, out)
	})
	if err != nil {
		e.logger.Warn("continue failed", "key", key, "error", err)
	}
	return out, err
}

// settle persists or clears the checkpoint under key. Callers hold the key lock.
func (e *Engine) settle(ctx context.Context, key string, out *domain.Outcome) error {
	store := e.sessions.Store()
	if out.Completed() {
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear checkpoint %s: %w", key, err)
		}
		return nil
	}

	data, err := checkpoint.Marshal(out.Checkpoint)
	if err != nil {
		return err
	}
	// A cancelled run still suspends; its checkpoint must reach the store.
	if err := store.Put(context.WithoutCancel(ctx), key, data); err != nil {
		return fmt.Errorf("persist checkpoint %s: %w", key, err)
	}
	e.logger.Debug("checkpoint persisted", "key", key, "tree", out.Checkpoint.TreeID, "bytes", len(data))
	return nil
}

// Inspect returns the stored record under key without resuming it.
func (e *Engine) Inspect(ctx context.Context, key string) (*checkpoint.Record, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	data, err := e.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return checkpoint.Unmarshal(data)
}

// Discard deletes the checkpoint stored under key.
func (e *Engine) Discard(ctx context.Context, key string) error {
	if e.sessions == nil {
		return ErrNoStore
	}
	return e.sessions.Delete(ctx, key)
}

// Checkpoints returns the keys of the stored checkpoints.
func (e *Engine) Checkpoints(ctx context.Context) ([]string, error) {
	if e.sessions == nil {
		return nil, ErrNoStore
	}
	keys, err := e.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Result is the outcome of continuing one stored checkpoint.
type Result struct {
	Key     string
	Outcome *domain.Outcome
	Err     error
}

// ResumeAll continues every stored checkpoint, at most WithConcurrency at a
// time. A failing key does not stop the others; results are ordered by key.
func (e *Engine) ResumeAll(ctx context.Context) ([]Result, error) {
	keys, err := e.Checkpoints(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			out, err := e.Continue(gctx, key)
			results[i] = Result{Key: key, Outcome: out, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
