package main

import (
	"fmt"

	"github.com/aretw0/passivate/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print a tree as a Mermaid flowchart",
	Long: `Prints the structure of a registered tree as a Mermaid flowchart. With --key,
the progress stored in that checkpoint is highlighted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		treeID, _ := cmd.Flags().GetString("tree")
		key, _ := cmd.Flags().GetString("key")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.Overlay
		if key != "" {
			rec, err := app.Engine.Inspect(cmd.Context(), key)
			if err != nil {
				return err
			}
			treeID = rec.TreeID
			overlay = &graph.Overlay{}
			overlay.Cursor.Frames = rec.Frames
		}

		tree, ok := app.Engine.Tree(treeID)
		if !ok {
			return fmt.Errorf("unknown tree %q (known: %v)", treeID, app.Engine.Trees())
		}
		out, err := graph.GenerateMermaid(tree, overlay)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("tree", "t", "order-confirmation", "Tree to print")
	graphCmd.Flags().StringP("key", "k", "", "Highlight the progress of this checkpoint")
}
