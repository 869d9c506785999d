package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/internal/telemetry"
	"github.com/bayleafwalker/bindery-compose/modules/admin"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
	"github.com/bayleafwalker/bindery-compose/modules/library"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	FlagMetricsBindAddress = "metrics-bind-address"
	FlagWatch              = "watch"

	serviceName     = "bindery-compose"
	shutdownTimeout = 5 * time.Second
)

type runOptions struct {
	compose     composeFlags
	metricsAddr string
	watch       bool
}

func newRunCommand() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compose the modules and start the application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context(), cmd.OutOrStdout())
		},
		DisableAutoGenTag: true,
	}
	o.compose.bind(cmd.Flags())
	cmd.Flags().StringVar(&o.metricsAddr, FlagMetricsBindAddress, "", "Address to serve Prometheus metrics on while watching. Empty disables metrics.")
	cmd.Flags().BoolVar(&o.watch, FlagWatch, false, "Keep running after composition: serve health and metrics and watch library folders until interrupted.")
	return cmd
}

func (o *runOptions) run(ctx context.Context, out io.Writer) error {
	logger := ctrl.Log.WithName("run")
	ctx = log.IntoContext(ctx, logger)

	telCfg, err := telemetry.LoadConfig()
	if err != nil {
		return err
	}
	shutdown, err := telemetry.Setup(ctx, serviceName, telCfg)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Error(err, "flush traces")
		}
	}()

	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	catalog, err := builtin.Catalog()
	if err != nil {
		return err
	}
	engine, err := o.compose.newEngine(catalog)
	if err != nil {
		return err
	}
	engine.Supply(cfg)

	m, err := engine.Execute(ctx)
	if err != nil {
		return err
	}
	for _, reg := range m.Registrations() {
		logger.V(1).Info("component ready", "component", reg.Component, "module", reg.Module)
	}
	if status, ok := compose.TryGetSingleton[*builtin.Status](m); ok {
		for _, line := range status.Lines() {
			fmt.Fprintln(out, line)
		}
	}

	if !o.watch {
		return nil
	}
	return o.serve(ctx, m)
}

// serve runs the long-lived parts of the composition until ctx is done or
// one of them fails.
func (o *runOptions) serve(ctx context.Context, m *compose.ImplementationMap) error {
	g, ctx := errgroup.WithContext(ctx)

	if server, ok := compose.TryGetSingleton[*admin.HealthServer](m); ok {
		g.Go(func() error { return server.ListenAndServe(ctx) })
	}
	for _, src := range compose.TryGetImplementations[library.Source](m) {
		if w, ok := src.(interface{ Watch(context.Context) error }); ok {
			g.Go(func() error { return w.Watch(ctx) })
		}
	}
	if o.metricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, o.metricsAddr) })
	}

	log.FromContext(ctx).Info("running until interrupted")
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.FromContext(ctx).Info("serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
