package runtime_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/registry"
)

type order struct {
	VIP   bool
	Items []string
}

// recorder captures effect invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) effect(name string) registry.Effect {
	return func(ctx context.Context, param any) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, fmt.Sprintf("%s(%v)", name, param))
		return nil
	}
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func orderItems(ctx context.Context, param any) ([]any, error) {
	o, ok := param.(order)
	if !ok {
		return nil, fmt.Errorf("unexpected parameter %T", param)
	}
	items := make([]any, len(o.Items))
	for i, it := range o.Items {
		items[i] = it
	}
	return items, nil
}

// confirmationTree is Conditional(VIP) -> Loop(items) -> Action(send-confirmation).
// predicateCalls counts every predicate evaluation.
func confirmationTree(id string, predicateCalls *int) *domain.Tree {
	return domain.NewTree(id, &domain.Conditional{
		Predicate: func(ctx context.Context, param any) (bool, error) {
			*predicateCalls++
			return param.(order).VIP, nil
		},
		Then: &domain.Loop{
			Select: orderItems,
			Body:   &domain.Action{Capability: "send-confirmation"},
		},
	})
}
