package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/passivate/pkg/domain"
)

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "Enter Node", "tree", e.TreeID, "node", e.NodeID, "kind", e.NodeKind, "depth", e.Depth)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "Leave Node", "tree", e.TreeID, "node", e.NodeID)
		},
		OnActionInvoke: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "Action Invoke", "node", e.NodeID, "capability", e.Capability)
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			if e.IsError {
				logger.DebugContext(ctx, "Action Return (Error)", "capability", e.Capability, "duration", e.Duration)
			} else {
				logger.DebugContext(ctx, "Action Return (Success)", "capability", e.Capability, "duration", e.Duration)
			}
		},
		OnSuspend: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.DebugContext(ctx, "Suspend", "tree", e.TreeID, "depth", e.Depth)
		},
		OnResume: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.DebugContext(ctx, "Resume", "tree", e.TreeID, "depth", e.Depth)
		},
	}
}

// Combine returns hooks that invoke every non-nil callback of all, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeLeave = chain(out.OnNodeLeave, h.OnNodeLeave)
		out.OnActionInvoke = chain(out.OnActionInvoke, h.OnActionInvoke)
		out.OnActionReturn = chain(out.OnActionReturn, h.OnActionReturn)
		out.OnSuspend = chain(out.OnSuspend, h.OnSuspend)
		out.OnResume = chain(out.OnResume, h.OnResume)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
