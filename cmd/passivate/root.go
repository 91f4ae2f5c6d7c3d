package main

import (
	"fmt"
	"os"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/internal/cli"
	"github.com/aretw0/passivate/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "passivate",
	Short: "Run order processes that can be suspended and resumed",
	Long: `passivate runs statement-tree business processes and persists them as
checkpoints whenever they are suspended, so they can be resumed later by key,
possibly from another process.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("store", "", "Checkpoint store as kind[:target], e.g. file:.passivate/checkpoints")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")
}

// loadConfig reads the config file and applies the global flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if store, _ := cmd.Flags().GetString("store"); store != "" {
		if err := cfg.SetStore(store); err != nil {
			return nil, err
		}
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}
	return cfg, cfg.Validate()
}

// openApp loads the configuration and builds the engine.
func openApp(cmd *cobra.Command, extra ...passivate.Option) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, cmd.OutOrStdout(), extra...)
}
