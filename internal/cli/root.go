// Package cli implements the bindery-compose command line.
package cli

import (
	"flag"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// New returns the root command.
func New() *cobra.Command {
	zapOpts := zap.Options{Development: true}
	goFlags := flag.NewFlagSet("bindery-compose", flag.ContinueOnError)
	zapOpts.BindFlags(goFlags)

	cmd := &cobra.Command{
		Use:   "bindery-compose [sub-command]",
		Short: "Compose bindery modules into an application",
		Long: `bindery-compose loads modules and their plugin dependencies, wires every
component to the contracts it needs and builds them in dependency order.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts), zap.WriteTo(cmd.ErrOrStderr())))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().AddGoFlagSet(goFlags)

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newPlanCommand())
	cmd.AddCommand(newModulesCommand())
	cmd.AddCommand(newControllerCommand())
	return cmd
}
