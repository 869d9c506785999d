package cli

import (
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/bayleafwalker/bindery-compose/controllers"
	"github.com/bayleafwalker/bindery-compose/internal/manifest"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	FlagHealthProbeBindAddress = "health-probe-bind-address"
	FlagLeaderElect            = "leader-elect"

	leaderElectionID = "composition.compose.bindery.dev"
)

type controllerOptions struct {
	metricsAddr          string
	probeAddr            string
	enableLeaderElection bool
}

func newControllerCommand() *cobra.Command {
	o := &controllerOptions{}
	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Plan Composition objects in a cluster and report the result in their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().StringVar(&o.metricsAddr, FlagMetricsBindAddress, ":8080", "The address the metric endpoint binds to.")
	cmd.Flags().StringVar(&o.probeAddr, FlagHealthProbeBindAddress, ":8081", "The address the probe endpoint binds to.")
	cmd.Flags().BoolVar(&o.enableLeaderElection, FlagLeaderElect, false, "Enable leader election for controller manager.")
	return cmd
}

func (o *controllerOptions) run(cmd *cobra.Command) error {
	setupLog := ctrl.Log.WithName("setup")

	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	catalog, err := builtin.Catalog()
	if err != nil {
		return err
	}
	restCfg, err := ctrl.GetConfig()
	if err != nil {
		return err
	}

	mgr, err := ctrl.NewManager(restCfg, ctrl.Options{
		Scheme:                 manifest.Scheme,
		Metrics:                metricsserver.Options{BindAddress: o.metricsAddr},
		HealthProbeBindAddress: o.probeAddr,
		LeaderElection:         o.enableLeaderElection,
		LeaderElectionID:       leaderElectionID,
	})
	if err != nil {
		return err
	}

	if err := (&controllers.CompositionReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Catalog:  catalog,
		Recorder: mgr.GetEventRecorderFor("Composition"),
		Supplied: []any{cfg},
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Composition")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return err
	}

	setupLog.Info("starting manager")
	return mgr.Start(cmd.Context())
}
