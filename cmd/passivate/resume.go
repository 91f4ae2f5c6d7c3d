package main

import (
	"errors"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/internal/cli"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [key]",
	Short: "Continue a suspended process",
	Long:  `Restores the checkpoint stored under key and continues it. With --all, every stored checkpoint is continued.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		after, _ := cmd.Flags().GetInt("suspend-after")
		if all == (len(args) == 1) {
			return errors.New("pass either a checkpoint key or --all")
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
		printer := cli.NewPrinter(cmd.OutOrStdout())

		if !all {
			out, err := app.Engine.Continue(ctx, args[0])
			printer.Outcome(args[0], out, err)
			return err
		}

		results, err := app.Engine.ResumeAll(ctx)
		if err != nil {
			return err
		}
		printer.Results(results)
		var errs []error
		for _, r := range results {
			errs = append(errs, r.Err)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().Bool("all", false, "Continue every stored checkpoint")
	resumeCmd.Flags().Int("suspend-after", 0, "Suspend again once this many actions have completed")
}
