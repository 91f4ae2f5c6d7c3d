package runtime

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/passivate/pkg/domain"
)

type stepResult int

const (
	stepCompleted stepResult = iota
	stepSuspended
)

type executionKey struct{}

// execution owns the cursor of a single run or resume. It is never shared.
type execution struct {
	engine *Engine
	tree   *domain.Tree
	param  any
	cursor domain.Cursor

	suspendRequested atomic.Bool
	actions          int
}

func (e *Engine) newExecution(tree *domain.Tree, param any, cursor domain.Cursor) *execution {
	return &execution{
		engine: e,
		tree:   tree,
		param:  param,
		cursor: cursor,
	}
}

// SuspendHere asks the run executing under ctx to suspend at its next
// boundary. The current action or predicate always finishes first.
// It reports false when ctx does not belong to a run.
func SuspendHere(ctx context.Context) bool {
	x, ok := ctx.Value(executionKey{}).(*execution)
	if !ok {
		return false
	}
	x.suspendRequested.Store(true)
	return true
}

func (x *execution) start(ctx context.Context) (*domain.Outcome, error) {
	ctx = context.WithValue(ctx, executionKey{}, x)
	logger := x.engine.logger.With("tree", x.tree.ID)

	res, err := x.exec(ctx, x.tree.Root, 0, x.param)
	if err != nil {
		logger.WarnContext(ctx, "run failed", "actions", x.actions, "err", err)
		return nil, err
	}

	if res == stepSuspended {
		cp := &domain.Checkpoint{
			TreeID:    x.tree.ID,
			Cursor:    x.cursor.Clone(),
			Parameter: x.param,
			CreatedAt: x.engine.now().UTC(),
		}
		logger.InfoContext(ctx, "run suspended", "depth", cp.Cursor.Depth(), "actions", x.actions)
		x.engine.emitSuspend(ctx, x.tree.ID, cp.Cursor.Depth())
		return &domain.Outcome{Status: domain.StatusSuspended, Checkpoint: cp}, nil
	}

	logger.InfoContext(ctx, "run completed", "actions", x.actions)
	return &domain.Outcome{Status: domain.StatusCompleted}, nil
}

func (x *execution) exec(ctx context.Context, n domain.Node, depth int, param any) (stepResult, error) {
	switch v := n.(type) {
	case *domain.Action:
		return x.execAction(ctx, v, depth, param)
	case *domain.Conditional:
		return x.execConditional(ctx, v, depth, param)
	case *domain.Loop:
		return x.execLoop(ctx, v, depth, param)
	case *domain.Sequence:
		return x.execSequence(ctx, v, depth, param)
	default:
		return stepCompleted, &domain.InvalidTreeError{Node: n.ID(), Reason: fmt.Sprintf("unsupported node type %T", n)}
	}
}

// frame returns the frame owned by n at depth: the persisted one when
// resuming, a fresh one otherwise.
func (x *execution) frame(n domain.Node, depth int) (*domain.Frame, error) {
	if f := x.cursor.At(depth); f != nil {
		if f.Node != n.ID() || f.Kind != n.Kind() {
			return nil, &domain.TreeMismatchError{
				TreeID: x.tree.ID,
				Depth:  depth,
				Reason: fmt.Sprintf("frame '%s' (%s) found where '%s' (%s) runs", f.Node, f.Kind, n.ID(), n.Kind()),
			}
		}
		return f, nil
	}
	if x.cursor.Depth() != depth {
		return nil, &domain.TreeMismatchError{
			TreeID: x.tree.ID,
			Depth:  depth,
			Reason: fmt.Sprintf("cursor has %d frames", x.cursor.Depth()),
		}
	}
	return x.cursor.Push(n), nil
}

func (x *execution) execAction(ctx context.Context, a *domain.Action, depth int, param any) (stepResult, error) {
	x.engine.emitNodeEnter(ctx, x.tree.ID, a, depth)

	fn, ok := x.engine.registry.Lookup(a.Capability)
	if !ok {
		return stepCompleted, &domain.InvalidTreeError{Node: a.ID(), Reason: fmt.Sprintf("capability '%s' is not registered", a.Capability)}
	}

	x.engine.emitActionInvoke(ctx, x.tree.ID, a)
	started := time.Now()
	err := fn(ctx, param)
	x.engine.emitActionReturn(ctx, x.tree.ID, a, time.Since(started), err != nil)

	if err != nil {
		return stepCompleted, &domain.ActionFailedError{
			Path:       append(x.cursor.Path(), a.ID()),
			Capability: a.Capability,
			Err:        err,
		}
	}

	x.actions++
	x.engine.emitNodeLeave(ctx, x.tree.ID, a, depth)
	return stepCompleted, nil
}

func (x *execution) execConditional(ctx context.Context, c *domain.Conditional, depth int, param any) (stepResult, error) {
	f, err := x.frame(c, depth)
	if err != nil {
		return stepCompleted, err
	}
	x.engine.emitNodeEnter(ctx, x.tree.ID, c, depth)

	// The predicate runs exactly once per visit; a recorded branch is never re-evaluated.
	if f.Branch == domain.BranchNone {
		ok, err := c.Predicate(ctx, param)
		if err != nil {
			return stepCompleted, fmt.Errorf("predicate at %s: %w", c.ID(), err)
		}
		switch {
		case ok:
			f.Branch = domain.BranchThen
		case c.Else != nil:
			f.Branch = domain.BranchElse
		default:
			f.Branch = domain.BranchSkip
		}
	}

	if child := c.Branch(f.Branch); child != nil {
		res, err := x.exec(ctx, child, depth+1, param)
		if err != nil || res == stepSuspended {
			return res, err
		}
	}

	x.cursor.Truncate(depth)
	x.engine.emitNodeLeave(ctx, x.tree.ID, c, depth)
	return stepCompleted, nil
}

func (x *execution) execLoop(ctx context.Context, l *domain.Loop, depth int, param any) (stepResult, error) {
	f, err := x.frame(l, depth)
	if err != nil {
		return stepCompleted, err
	}
	start := f.Next
	x.engine.emitNodeEnter(ctx, x.tree.ID, l, depth)

	items, err := l.Select(ctx, param)
	if err != nil {
		return stepCompleted, fmt.Errorf("selector at %s: %w", l.ID(), err)
	}
	if start > len(items) {
		return stepCompleted, &domain.TreeMismatchError{
			TreeID: x.tree.ID,
			Depth:  depth,
			Reason: fmt.Sprintf("loop '%s' resumes at %d of %d items", l.ID(), start, len(items)),
		}
	}

	res, err := x.iterate(ctx, l, depth, start, len(items), func(i int) (domain.Node, any) {
		return l.Body, items[i]
	})
	if err != nil || res == stepSuspended {
		return res, err
	}

	x.cursor.Truncate(depth)
	x.engine.emitNodeLeave(ctx, x.tree.ID, l, depth)
	return stepCompleted, nil
}

func (x *execution) execSequence(ctx context.Context, s *domain.Sequence, depth int, param any) (stepResult, error) {
	f, err := x.frame(s, depth)
	if err != nil {
		return stepCompleted, err
	}
	start := f.Next
	x.engine.emitNodeEnter(ctx, x.tree.ID, s, depth)

	res, err := x.iterate(ctx, s, depth, start, len(s.Steps), func(i int) (domain.Node, any) {
		return s.Steps[i], param
	})
	if err != nil || res == stepSuspended {
		return res, err
	}

	x.cursor.Truncate(depth)
	x.engine.emitNodeLeave(ctx, x.tree.ID, s, depth)
	return stepCompleted, nil
}

// iterate drives the children of a Loop or Sequence from index start.
// The frame at depth always holds the index of the child in flight, so a
// suspension inside a child resumes that same child and a suspension at a
// boundary resumes the next one.
func (x *execution) iterate(ctx context.Context, n domain.Node, depth, start, count int, child func(int) (domain.Node, any)) (stepResult, error) {
	for i := start; i < count; i++ {
		x.cursor.At(depth).Next = i

		node, param := child(i)
		res, err := x.exec(ctx, node, depth+1, param)
		if err != nil || res == stepSuspended {
			return res, err
		}

		x.cursor.At(depth).Next = i + 1
		if i+1 < count && x.atBoundary(ctx, n, depth, i+1) {
			return stepSuspended, nil
		}
	}
	return stepCompleted, nil
}

// atBoundary reports whether the run must suspend after a completed child step.
func (x *execution) atBoundary(ctx context.Context, n domain.Node, depth, next int) bool {
	if x.suspendRequested.Swap(false) {
		return true
	}
	if ctx.Err() != nil {
		x.engine.logger.DebugContext(ctx, "context done, suspending at boundary", "node", n.ID(), "err", ctx.Err())
		return true
	}
	if x.engine.policy != nil {
		return x.engine.policy(ctx, Boundary{
			TreeID:  x.tree.ID,
			NodeID:  n.ID(),
			Depth:   depth,
			Next:    next,
			Actions: x.actions,
		})
	}
	return false
}
