package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/internal/cli"
	"github.com/aretw0/passivate/internal/orders"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an order process",
	Long: `Starts an order process under a checkpoint key. If the process is
suspended (by --suspend-after or Ctrl-C) it is persisted and can be continued
with "passivate resume <key>".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		treeID, _ := cmd.Flags().GetString("tree")
		key, _ := cmd.Flags().GetString("key")
		orderPath, _ := cmd.Flags().GetString("order")
		vip, _ := cmd.Flags().GetBool("vip")
		after, _ := cmd.Flags().GetInt("suspend-after")

		if key == "" {
			key = passivate.NewKey()
		}
		order, err := loadOrder(orderPath, key, vip)
		if err != nil {
			return err
		}

		var extra []passivate.Option
		if after > 0 {
			extra = append(extra, passivate.WithSuspendPolicy(passivate.SuspendAfter(after)))
		}
		app, err := openApp(cmd, extra...)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		out, err := app.Engine.Start(ctx, key, treeID, order)
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Info("interrupted, run suspended", "signal", sig.String(), "key", key)
		}
		cli.NewPrinter(cmd.OutOrStdout()).Outcome(key, out, err)
		return err
	},
}

func loadOrder(path, id string, vip bool) (orders.Order, error) {
	if path == "" {
		return orders.Sample(id, vip), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return orders.Order{}, fmt.Errorf("failed to read order: %w", err)
	}
	var o orders.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return orders.Order{}, fmt.Errorf("failed to parse order: %w", err)
	}
	return o, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("tree", "t", orders.ConfirmationTreeID, "Tree to run ("+orders.ConfirmationTreeID+", "+orders.ApprovalTreeID+")")
	runCmd.Flags().StringP("key", "k", "", "Checkpoint key (default: a new UUID)")
	runCmd.Flags().String("order", "", "Order JSON file (default: a sample order)")
	runCmd.Flags().Bool("vip", true, "Make the sample order's customer a VIP")
	runCmd.Flags().Int("suspend-after", 0, "Suspend once this many actions have completed")
}
