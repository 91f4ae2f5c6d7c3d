package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/passivate/internal/presentation/graph"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	VIP   bool
	Items []string
}

func sampleTree() *domain.Tree {
	return dsl.MustTree[order]("orders", dsl.Seq(
		dsl.Named("check", dsl.Do("check-prices")),
		dsl.Named("vip", dsl.When(func(o order) bool { return o.VIP },
			dsl.Named("items", dsl.Each(func(_ context.Context, o order) ([]string, error) { return o.Items, nil },
				dsl.Do("send-confirmation"))),
			dsl.Do("send-summary"))),
	))
}

func TestGenerateMermaid(t *testing.T) {
	out, err := graph.GenerateMermaid(sampleTree(), nil)
	require.NoError(t, err)

	for _, want := range []string{
		"graph TD\n",
		`root["root <br/> sequence"]`,
		`root -- "1" --> root_check`,
		`root -- "2" --> root_vip`,
		`root_check[["check-prices"]]`,
		`root_vip{"root/vip <br/> conditional"}`,
		`root_vip -- "then" --> root_vip_items`,
		`root_vip -- "else" --> root_vip_else`,
		`root_vip_items[/"root/vip/items <br/> loop"/]`,
		`root_vip_items -- "each" --> root_vip_items_body`,
		`root_vip_items_body[["send-confirmation"]]`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out, err := graph.GenerateMermaid(sampleTree(), &graph.Overlay{Cursor: domain.Cursor{Frames: []domain.Frame{
		{Node: "root", Kind: domain.KindSequence, Next: 1},
		{Node: "root/vip", Kind: domain.KindConditional, Branch: domain.BranchThen},
		{Node: "root/vip/items", Kind: domain.KindLoop, Next: 1},
	}}})
	require.NoError(t, err)

	assert.Contains(t, out, "class root current;")
	assert.Contains(t, out, "class root_check visited;")
	assert.Contains(t, out, "class root_vip current;")
	assert.Contains(t, out, "class root_vip_items current;")
	assert.Equal(t, 1, strings.Count(out, "visited;"))
}

func TestGenerateMermaid_InvalidTree(t *testing.T) {
	_, err := graph.GenerateMermaid(domain.NewTree("", nil), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTree)
}
