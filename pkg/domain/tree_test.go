package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysTrue(ctx context.Context, param any) (bool, error) { return true, nil }

func items(ctx context.Context, param any) ([]any, error) { return []any{1, 2}, nil }

func TestTree_CompileAssignsPaths(t *testing.T) {
	send := &domain.Action{Capability: "send"}
	loop := &domain.Loop{Select: items, Body: send}
	other := &domain.Action{Name: "audit", Capability: "audit"}
	root := &domain.Conditional{
		Predicate: alwaysTrue,
		Then:      loop,
		Else:      &domain.Sequence{Steps: []domain.Node{other}},
	}

	tree := domain.NewTree("orders", root)
	require.NoError(t, tree.Compile())

	assert.Equal(t, "root", root.ID())
	assert.Equal(t, "root/then", loop.ID())
	assert.Equal(t, "root/then/body", send.ID())
	assert.Equal(t, "root/else/audit", other.ID())

	n, ok := tree.Node("root/then/body")
	require.True(t, ok)
	assert.Same(t, send, n)

	var visited []string
	require.NoError(t, tree.Walk(func(n domain.Node) error {
		visited = append(visited, n.ID())
		return nil
	}))
	assert.Equal(t, []string{"root", "root/then", "root/then/body", "root/else", "root/else/audit"}, visited)
}

func TestTree_CompileIsIdempotent(t *testing.T) {
	tree := domain.NewTree("t", &domain.Action{Capability: "x"})
	require.NoError(t, tree.Compile())
	require.NoError(t, tree.Compile())
}

func TestTree_SameShapeMayBeReattached(t *testing.T) {
	root := &domain.Sequence{Steps: []domain.Node{&domain.Action{Capability: "x"}}}
	require.NoError(t, domain.NewTree("a", root).Compile())
	require.NoError(t, domain.NewTree("b", root).Compile())
}

func TestTree_CompileRejectsMalformed(t *testing.T) {
	shared := &domain.Action{Capability: "x"}

	tests := []struct {
		name string
		tree *domain.Tree
	}{
		{"nil tree", nil},
		{"empty id", domain.NewTree("", &domain.Action{Capability: "x"})},
		{"no root", domain.NewTree("t", nil)},
		{"loop without selector", domain.NewTree("t", &domain.Loop{Body: &domain.Action{Capability: "x"}})},
		{"loop without body", domain.NewTree("t", &domain.Loop{Select: items})},
		{"conditional without predicate", domain.NewTree("t", &domain.Conditional{Then: &domain.Action{Capability: "x"}})},
		{"conditional without then", domain.NewTree("t", &domain.Conditional{Predicate: alwaysTrue})},
		{"action without capability", domain.NewTree("t", &domain.Action{})},
		{"empty sequence", domain.NewTree("t", &domain.Sequence{})},
		{"duplicate names", domain.NewTree("t", &domain.Sequence{Steps: []domain.Node{
			&domain.Action{Name: "a", Capability: "x"},
			&domain.Action{Name: "a", Capability: "y"},
		}})},
		{"shared node", domain.NewTree("t", &domain.Sequence{Steps: []domain.Node{shared, shared}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tree.Compile()
			assert.ErrorIs(t, err, domain.ErrInvalidTree)
		})
	}
}
