package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/passivate/internal/logging"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/registry"
)

// Boundary describes a point where a run may be suspended: a container has
// just finished a child step and recorded its progress.
type Boundary struct {
	TreeID string
	NodeID string
	Depth  int
	// Next is the index the container will execute next.
	Next int
	// Actions counts the actions completed by this run or resume so far.
	Actions int
}

// SuspendPolicy lets the host request suspension at any boundary.
type SuspendPolicy func(ctx context.Context, b Boundary) bool

// Engine is the statement-tree interpreter.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	policy   SuspendPolicy
	now      func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSuspendPolicy sets a host-side suspension policy.
func WithSuspendPolicy(policy SuspendPolicy) EngineOption {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithClock overrides the time source used for checkpoint timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine bound to a capability registry.
func NewEngine(reg *registry.Registry, opts ...EngineOption) *Engine {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	e := &Engine{
		registry: reg,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the capability registry the engine resolves actions against.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Run executes tree from its root with a fresh cursor until it completes or
// a suspension request is honored.
func (e *Engine) Run(ctx context.Context, tree *domain.Tree, param any) (*domain.Outcome, error) {
	if err := e.validate(tree); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "run started", "tree", tree.ID)
	x := e.newExecution(tree, param, domain.Cursor{})
	return x.start(ctx)
}

// Resume rebuilds the cursor of cp against tree and continues exactly where
// the suspended run stopped. The cursor is fully validated before any node runs.
func (e *Engine) Resume(ctx context.Context, tree *domain.Tree, cp *domain.Checkpoint) (*domain.Outcome, error) {
	if cp == nil {
		return nil, fmt.Errorf("resume: checkpoint is nil")
	}
	if err := e.validate(tree); err != nil {
		return nil, err
	}
	if cp.TreeID != tree.ID {
		return nil, &domain.TreeMismatchError{
			TreeID: tree.ID,
			Reason: fmt.Sprintf("checkpoint belongs to tree '%s'", cp.TreeID),
		}
	}
	if err := checkCursor(ctx, tree, cp.Cursor, cp.Parameter); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "run resumed", "tree", tree.ID, "depth", cp.Cursor.Depth())
	e.emitResume(ctx, tree.ID, cp.Cursor.Depth())

	x := e.newExecution(tree, cp.Parameter, cp.Cursor.Clone())
	return x.start(ctx)
}

// validate rejects nil or malformed trees and actions whose capability is unknown.
func (e *Engine) validate(tree *domain.Tree) error {
	if err := tree.Compile(); err != nil {
		return err
	}
	return tree.Walk(func(n domain.Node) error {
		a, ok := n.(*domain.Action)
		if !ok {
			return nil
		}
		if _, found := e.registry.Lookup(a.Capability); !found {
			return &domain.InvalidTreeError{
				Node:   a.ID(),
				Reason: fmt.Sprintf("capability '%s' is not registered", a.Capability),
			}
		}
		return nil
	})
}
