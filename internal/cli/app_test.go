package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/internal/config"
	"github.com/aretw0/passivate/internal/orders"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Kind: config.StoreMemory}
	cfg.LogLevel = "error"
	return cfg
}

func TestNewApp_RunsOrderTrees(t *testing.T) {
	var out bytes.Buffer
	app, err := NewApp(memoryConfig(), &out, passivate.WithSuspendPolicy(passivate.SuspendAfter(2)))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, []string{orders.ApprovalTreeID, orders.ConfirmationTreeID}, app.Engine.Trees())

	ctx := context.Background()
	res, err := app.Engine.Start(ctx, "o-1", orders.ConfirmationTreeID, orders.Sample("o-1", true))
	require.NoError(t, err)
	require.False(t, res.Completed())

	res, err = app.Engine.Continue(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.Contains(t, out.String(), "confirmation sent: CD-220 x100")

	// Store metrics are exported next to the interpreter metrics.
	families, err := app.Metrics.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["passivate_suspensions_total"])
	assert.True(t, names["passivate_store_operation_duration_seconds"])
}

func TestNewApp_ScriptedVIPRule(t *testing.T) {
	cfg := memoryConfig()
	cfg.VIPRule = `param.customer.name.startsWith("Ada")`

	var out bytes.Buffer
	app, err := NewApp(cfg, &out)
	require.NoError(t, err)
	defer app.Close()

	res, err := app.Engine.Start(context.Background(), "o-2", orders.ConfirmationTreeID, orders.Sample("o-2", false))
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.Contains(t, out.String(), "confirmation sent: BK-001 x1")

	cfg.VIPRule = `param.(`
	_, err = NewApp(cfg, &out)
	assert.Error(t, err)
}

func TestNewApp_ProcessCapabilitiesOverrideDesk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	signed := filepath.Join(dir, "signed.json")
	capsPath := filepath.Join(dir, "capabilities.yaml")
	require.NoError(t, os.WriteFile(capsPath, []byte(`
capabilities:
  - name: sign-and-record
    command: sh
    args: ["-c", "cat > \"$SIGNED\""]
    env:
      SIGNED: `+signed+"\n"), 0o644))

	cfg := memoryConfig()
	cfg.Capabilities = capsPath

	var out bytes.Buffer
	app, err := NewApp(cfg, &out)
	require.NoError(t, err)
	defer app.Close()

	res, err := app.Engine.Start(context.Background(), "o-3", orders.ApprovalTreeID, orders.Sample("o-3", true))
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.NotContains(t, out.String(), "signed and recorded")

	data, err := os.ReadFile(signed)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"o-3"`)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Outcome("a", &domain.Outcome{Status: domain.StatusCompleted}, nil)
	p.Outcome("b", &domain.Outcome{Status: domain.StatusSuspended, Checkpoint: &domain.Checkpoint{
		Cursor: domain.Cursor{Frames: []domain.Frame{
			{Node: "vip", Kind: domain.KindConditional, Branch: domain.BranchThen},
			{Node: "vip/items", Kind: domain.KindLoop, Next: 2},
		}},
	}}, nil)
	p.Outcome("c", nil, errors.New("boom"))
	p.Results(nil)

	assert.Equal(t, "completed a\n"+
		"suspended b at vip[then] > vip/items[2]\n"+
		"failed    c: boom\n"+
		"No checkpoints found.\n", buf.String())
}
