package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviours"
	"github.com/reactive-graph/reactive-graph-sub007/internal/config"
	"github.com/reactive-graph/reactive-graph-sub007/internal/harness"
	"github.com/reactive-graph/reactive-graph-sub007/internal/journal"
	"github.com/reactive-graph/reactive-graph-sub007/internal/metrics"
	"github.com/reactive-graph/reactive-graph-sub007/internal/system"
	"github.com/reactive-graph/reactive-graph-sub007/internal/typesys"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string // overrides journal.path
	TypesDir    string // overrides types.dir
	MetricsAddr string // overrides metrics.addr
	NoMetrics   bool
	Graph       string // scenario file whose entities and relations seed the graph

	// Ready, if set, receives the metrics listener address (empty when
	// metrics are off) once the system is running.
	Ready chan<- string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the behaviour runtime",
		Long: `Start the behaviour runtime with the built-in library.

The runtime loads CUE types, opens the transition journal (creating it if
it doesn't exist), installs the built-in behaviours and serves Prometheus
metrics until interrupted. --graph seeds the runtime with the entities and
relations of a scenario file; its steps are ignored.

Example:
  rgraph run --db ./rgraph.db --types ./types
  rgraph run --db ./rgraph.db --graph ./scenarios/sqrt_chain.yaml --no-metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			opts.apply(&cfg)
			return runSystem(opts, cfg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (default journal.path)")
	cmd.Flags().StringVar(&opts.TypesDir, "types", "", "directory of CUE type definitions (default types.dir)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "metrics listen address (default metrics.addr)")
	cmd.Flags().BoolVar(&opts.NoMetrics, "no-metrics", false, "disable the metrics endpoint")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "scenario file to seed the graph from")

	return cmd
}

func (o *RunOptions) apply(cfg *config.Config) {
	if o.Database != "" {
		cfg.Journal.Path = o.Database
	}
	if o.TypesDir != "" {
		cfg.Types.Dir = o.TypesDir
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	if o.NoMetrics {
		cfg.Metrics.Enabled = false
	}
}

func runSystem(opts *RunOptions, cfg config.Config, cmd *cobra.Command) error {
	logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log config", err)
	}
	slog.SetDefault(logger)

	types, err := loadTypes(cfg.Types.Dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load types", err)
	}

	var seed *harness.Scenario
	if opts.Graph != "" {
		seed, err = harness.LoadScenario(opts.Graph)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load graph", err)
		}
		if err := harness.LoadTypeFiles(types, seed); err != nil {
			return WrapExitError(ExitCommandError, "failed to load graph types", err)
		}
	}

	slog.Info("opening journal", "path", cfg.Journal.Path)
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	last, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	rec := journal.NewRecorder(j, journal.NewClockAt(last))
	recDone := make(chan error, 1)
	go func() { recDone <- rec.Run(context.WithoutCancel(ctx)) }()

	listeners := []system.Option{system.WithListener(rec)}
	var metricsAddr string
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		listeners = append(listeners, system.WithListener(collector))
		srv, addr, err := serveMetrics(cfg.Metrics.Addr, collector)
		if err != nil {
			rec.Close()
			<-recDone
			return WrapExitError(ExitCommandError, "failed to start metrics listener", err)
		}
		metricsAddr = addr
		defer shutdownServer(srv)
		slog.Info("metrics listening", "addr", addr)
	}

	sys := system.New(types, listeners...)
	runErr := lifecycle(ctx, sys, types, seed, opts, metricsAddr, cmd)

	rec.Close()
	if err := <-recDone; err != nil {
		slog.Error("journal recorder stopped", "error", err)
	}
	if dropped := rec.Dropped(); dropped > 0 {
		slog.Warn("transitions dropped after journal close", "count", dropped)
	}
	return runErr
}

// lifecycle installs the library, seeds the graph, waits for ctx and shuts
// the system down. Shutdown runs even when startup fails part way.
func lifecycle(ctx context.Context, sys *system.System, types *typesys.Registry, seed *harness.Scenario, opts *RunOptions, metricsAddr string, cmd *cobra.Command) error {
	shutdown := func() error {
		sctx := context.WithoutCancel(ctx)
		var errs []error
		if sys.Phase() == system.PhaseRunning {
			errs = append(errs, sys.PreShutdown(sctx))
		}
		errs = append(errs, sys.Shutdown(sctx))
		return errors.Join(errs...)
	}

	if err := sys.Install(behaviours.Library{}); err != nil {
		return WrapExitError(ExitFailure, "failed to install library", errors.Join(err, shutdown()))
	}
	if err := sys.Init(ctx); err != nil {
		return WrapExitError(ExitFailure, "init failed", errors.Join(err, shutdown()))
	}
	if err := sys.PostInit(ctx); err != nil {
		return WrapExitError(ExitFailure, "post-init failed", errors.Join(err, shutdown()))
	}

	if seed != nil {
		g, err := harness.BuildGraph(seed, types, sys)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to seed graph", errors.Join(err, shutdown()))
		}
		slog.Info("graph seeded", "scenario", seed.Name, "entities", len(g.Entities), "relations", len(g.Relations))
	}

	slog.Info("runtime started", "plugins", sys.Plugins())
	fmt.Fprintln(cmd.OutOrStdout(), "Runtime started. Press Ctrl-C to stop.")
	if opts.Ready != nil {
		opts.Ready <- metricsAddr
	}

	<-ctx.Done()
	slog.Info("shutting down", "reason", context.Cause(ctx))

	if err := shutdown(); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	slog.Info("runtime stopped gracefully")
	return nil
}

func serveMetrics(addr string, c *metrics.Collector) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(c)))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv, ln.Addr().String(), nil
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("error stopping metrics server", "error", err)
	}
}
