package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/passivate/pkg/domain"
)

// Tree builds and compiles a tree whose carried parameter has type T.
// Checkpoints of the tree decode their parameter back into a T.
func Tree[T any](id string, root domain.Node) (*domain.Tree, error) {
	t := domain.NewTree(id, root)
	t.NewParameter = func() any { return new(T) }
	if err := t.Compile(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTree is like Tree but panics on an invalid tree.
// Intended for package-level tree definitions.
func MustTree[T any](id string, root domain.Node) *domain.Tree {
	t, err := Tree[T](id, root)
	if err != nil {
		panic(err)
	}
	return t
}

// Do creates an action that invokes capability.
func Do(capability string) *domain.Action {
	return &domain.Action{Capability: capability}
}

// If creates a conditional. An optional otherwise node becomes the Else branch.
func If[T any](pred func(ctx context.Context, param T) (bool, error), then domain.Node, otherwise ...domain.Node) *domain.Conditional {
	c := &domain.Conditional{
		Predicate: func(ctx context.Context, param any) (bool, error) {
			v, err := As[T](param)
			if err != nil {
				return false, err
			}
			return pred(ctx, v)
		},
		Then: then,
	}
	if len(otherwise) > 0 {
		c.Else = otherwise[0]
	}
	return c
}

// When is If for predicates that cannot fail.
func When[T any](pred func(param T) bool, then domain.Node, otherwise ...domain.Node) *domain.Conditional {
	return If(func(_ context.Context, param T) (bool, error) {
		return pred(param), nil
	}, then, otherwise...)
}

// Each creates a loop over the items selected from a T. The body receives each I.
// sel must return the same items, in the same order, for the same parameter.
func Each[T, I any](sel func(ctx context.Context, param T) ([]I, error), body domain.Node) *domain.Loop {
	return &domain.Loop{
		Select: func(ctx context.Context, param any) ([]any, error) {
			v, err := As[T](param)
			if err != nil {
				return nil, err
			}
			items, err := sel(ctx, v)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = item
			}
			return out, nil
		},
		Body: body,
	}
}

// Seq creates a sequence of steps that all receive the carried parameter.
func Seq(steps ...domain.Node) *domain.Sequence {
	return &domain.Sequence{Steps: steps}
}

// Named sets the path segment of n, so its node id no longer depends on its
// position. Use it for nodes whose checkpoints must survive reordering of
// siblings.
func Named[N domain.Node](name string, n N) N {
	switch v := any(n).(type) {
	case *domain.Action:
		v.Name = name
	case *domain.Conditional:
		v.Name = name
	case *domain.Loop:
		v.Name = name
	case *domain.Sequence:
		v.Name = name
	}
	return n
}

// As converts a carried parameter to T. Pointers to T are dereferenced.
func As[T any](param any) (T, error) {
	switch v := param.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("parameter has type %T, want %T", param, zero)
}
