package script_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/passivate/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type order struct {
	Customer customer `json:"customer"`
	Items    []string `json:"items"`
}

func TestPredicate_UsesJSONFieldNames(t *testing.T) {
	pred, err := script.Predicate(`param.customer.type === "VIP"`)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := pred(ctx, order{Customer: customer{Type: "VIP"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pred(ctx, order{Customer: customer{Type: "Normal"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicate_Truthiness(t *testing.T) {
	ctx := context.Background()
	tests := map[string]bool{
		`param.items.length`:     true,
		`param.items.length - 2`: false,
		`param.missing`:          false,
		`""`:                     false,
		`"x"`:                    true,
		`0/0`:                    false,
		`({})`:                   true,
	}
	for src, want := range tests {
		pred, err := script.Predicate(src)
		require.NoError(t, err, src)
		got, err := pred(ctx, order{Items: []string{"a", "b"}})
		require.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}
}

func TestSelector(t *testing.T) {
	ctx := context.Background()

	sel, err := script.Selector(`param.items.filter(function (i) { return i !== "b" })`)
	require.NoError(t, err)
	items, err := sel(ctx, order{Items: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, items)

	sel, err = script.Selector(`null`)
	require.NoError(t, err)
	items, err = sel(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	sel, err = script.Selector(`param.customer`)
	require.NoError(t, err)
	_, err = sel(ctx, order{})
	assert.Error(t, err)
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := script.Compile(`param.(`)
	assert.Error(t, err)
}

func TestEval_RuntimeError(t *testing.T) {
	e, err := script.Compile(`param.nope.deeper`)
	require.NoError(t, err)
	_, err = e.Eval(context.Background(), order{})
	assert.Error(t, err)
}

func TestEval_Interrupted(t *testing.T) {
	e, err := script.Compile(`(function () { for (;;) {} })()`)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = e.Eval(ctx, nil)
	assert.ErrorIs(t, err, script.ErrInterrupted)
}
