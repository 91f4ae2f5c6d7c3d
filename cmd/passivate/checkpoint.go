package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	Aliases: []string{"cp"},
	Short:   "Manage stored checkpoints",
}

var checkpointLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored checkpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		keys, err := app.Engine.Checkpoints(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing checkpoints: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No checkpoints found.")
			return nil
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	},
}

var checkpointInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print a stored checkpoint as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		rec, err := app.Engine.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var checkpointRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove stored checkpoints",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, key := range args {
			if err := app.Engine.Discard(cmd.Context(), key); err != nil {
				return fmt.Errorf("error removing %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointLsCmd, checkpointInspectCmd, checkpointRmCmd)
}
