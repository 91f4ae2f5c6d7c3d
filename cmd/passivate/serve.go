package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/passivate/internal/cli"
	httpAdapter "github.com/aretw0/passivate/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the checkpoint API over HTTP",
	Long:  `Exposes stored checkpoints as a JSON API (list, inspect, resume, remove) plus Prometheus metrics on /metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(app.Engine,
				httpAdapter.WithMetrics(app.Metrics),
				httpAdapter.WithLogger(app.Logger),
			),
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("server listening", "addr", addr, "store", app.Config.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			app.Logger.Info("shutting down", "signal", ctx.Signal())

			timeout := app.Config.Server.ShutdownTimeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "timeout", timeout, "error", err)
				return srv.Close()
			}
			if err := <-serverErrors; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
