package main

import (
	"fmt"

	"github.com/aretw0/passivate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of passivate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "passivate version %s\n", passivate.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
