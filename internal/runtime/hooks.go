package runtime

import (
	"context"
	"time"

	"github.com/aretw0/passivate/pkg/domain"
)

func (e *Engine) base(t domain.EventType, treeID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, TreeID: treeID}
}

func (e *Engine) emitNodeEnter(ctx context.Context, treeID string, n domain.Node, depth int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeEnter, treeID),
		NodeID:    n.ID(),
		NodeKind:  n.Kind(),
		Depth:     depth,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, treeID string, n domain.Node, depth int) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeLeave, treeID),
		NodeID:    n.ID(),
		NodeKind:  n.Kind(),
		Depth:     depth,
	})
}

func (e *Engine) emitActionInvoke(ctx context.Context, treeID string, a *domain.Action) {
	if e.hooks.OnActionInvoke == nil {
		return
	}
	e.hooks.OnActionInvoke(ctx, &domain.ActionEvent{
		EventBase:  e.base(domain.EventActionInvoke, treeID),
		NodeID:     a.ID(),
		Capability: a.Capability,
	})
}

func (e *Engine) emitActionReturn(ctx context.Context, treeID string, a *domain.Action, d time.Duration, isError bool) {
	if e.hooks.OnActionReturn == nil {
		return
	}
	e.hooks.OnActionReturn(ctx, &domain.ActionEvent{
		EventBase:  e.base(domain.EventActionReturn, treeID),
		NodeID:     a.ID(),
		Capability: a.Capability,
		Duration:   d,
		IsError:    isError,
	})
}

func (e *Engine) emitSuspend(ctx context.Context, treeID string, depth int) {
	if e.hooks.OnSuspend == nil {
		return
	}
	e.hooks.OnSuspend(ctx, &domain.CheckpointEvent{
		EventBase: e.base(domain.EventSuspend, treeID),
		Depth:     depth,
	})
}

func (e *Engine) emitResume(ctx context.Context, treeID string, depth int) {
	if e.hooks.OnResume == nil {
		return
	}
	e.hooks.OnResume(ctx, &domain.CheckpointEvent{
		EventBase: e.base(domain.EventResume, treeID),
		Depth:     depth,
	})
}
