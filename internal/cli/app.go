// Package cli wires configuration into a ready passivate engine for the
// command line and the HTTP server.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/internal/config"
	"github.com/aretw0/passivate/internal/logging"
	"github.com/aretw0/passivate/internal/orders"
	"github.com/aretw0/passivate/pkg/adapters/process"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/observability"
	"github.com/aretw0/passivate/pkg/persistence/middleware"
	"github.com/aretw0/passivate/pkg/registry"
	"github.com/aretw0/passivate/pkg/script"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is an engine together with the resources it owns.
type App struct {
	Engine  *passivate.Engine
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *prometheus.Registry

	backend *config.Backend
}

// NewApp builds the engine described by cfg. Order capabilities report to
// out; extra options are applied last.
func NewApp(cfg *config.Config, out io.Writer, extra ...passivate.Option) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithFormat(level, cfg.LogFormat, os.Stderr)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	hooks := observability.NewMetrics(promReg).Hooks()
	if level <= slog.LevelDebug {
		hooks = observability.Combine(hooks, observability.DebugHooks(logger))
	}

	backend, err := cfg.OpenBackend(middleware.NewStoreMetrics(promReg))
	if err != nil {
		return nil, fmt.Errorf("error opening store: %w", err)
	}

	reg, err := newRegistry(cfg, out)
	if err != nil {
		backend.Close()
		return nil, err
	}
	trees, err := newTrees(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	opts := []passivate.Option{
		passivate.WithRegistry(reg),
		passivate.WithTrees(trees...),
		passivate.WithStore(backend.Store),
		passivate.WithLifecycleHooks(hooks),
		passivate.WithLogger(logger),
		passivate.WithConcurrency(cfg.Concurrency),
	}
	if backend.Locker != nil {
		opts = append(opts, passivate.WithLocker(backend.Locker))
	}
	opts = append(opts, extra...)

	eng, err := passivate.New(opts...)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return &App{
		Engine:  eng,
		Config:  cfg,
		Logger:  logger,
		Metrics: promReg,
		backend: backend,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.backend.Close()
}

// newRegistry binds the built-in order desk, then lets configured process
// capabilities replace or extend it.
func newRegistry(cfg *config.Config, out io.Writer) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	orders.NewDesk(out).Register(reg)

	if cfg.Capabilities == "" {
		return reg, nil
	}
	caps, err := process.LoadCapabilities(cfg.Capabilities)
	if err != nil {
		return nil, err
	}
	process.NewRunner(process.WithRegistry(caps)).Bind(reg)
	return reg, nil
}

func newTrees(cfg *config.Config) ([]*domain.Tree, error) {
	var rule domain.Predicate
	if cfg.VIPRule != "" {
		var err error
		rule, err = script.Predicate(cfg.VIPRule)
		if err != nil {
			return nil, fmt.Errorf("vip_rule: %w", err)
		}
	}
	confirmation, err := orders.ConfirmationTree(rule)
	if err != nil {
		return nil, err
	}
	approval, err := orders.ApprovalTree()
	if err != nil {
		return nil, err
	}
	return []*domain.Tree{confirmation, approval}, nil
}
