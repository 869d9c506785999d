package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	FlagOutput = "output"

	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type planOptions struct {
	compose composeFlags
	output  string
}

func newPlanCommand() *cobra.Command {
	o := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what run would build, in construction order, without building it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := log.IntoContext(cmd.Context(), ctrl.Log.WithName("plan"))
			catalog, err := builtin.Catalog()
			if err != nil {
				return err
			}
			engine, err := o.compose.newEngine(catalog)
			if err != nil {
				return err
			}
			cfg, err := settings.Load()
			if err != nil {
				return err
			}
			engine.Supply(cfg)
			plan, err := engine.Plan(ctx)
			if err != nil {
				return err
			}
			return renderPlan(cmd.OutOrStdout(), o.output, plan)
		},
		DisableAutoGenTag: true,
	}
	o.compose.bind(cmd.Flags())
	cmd.Flags().StringVarP(&o.output, FlagOutput, "o", OutputTable, "Output format: table, json or yaml.")
	return cmd
}

func renderPlan(w io.Writer, format string, plan *compose.Plan) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case OutputYAML:
		data, err := yaml.Marshal(plan)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case OutputTable:
		renderPlanTable(w, plan)
		return nil
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

func renderPlanTable(w io.Writer, plan *compose.Plan) {
	modules := newTable(w)
	modules.AppendHeader(table.Row{"Module", "Version", "Plugin"})
	for _, m := range plan.Modules {
		modules.AppendRow(table.Row{m.Name, m.Version, m.Plugin})
	}
	modules.Render()
	fmt.Fprintln(w)

	components := newTable(w)
	components.AppendHeader(table.Row{"#", "Component", "Module", "Contracts", "Depends on"})
	for i, c := range plan.Components {
		components.AppendRow(table.Row{i + 1, c.Name, c.Module, strings.Join(c.Contracts, "\n"), strings.Join(c.Dependencies, "\n")})
	}
	components.Render()

	if len(plan.Unresolved) > 0 {
		fmt.Fprintln(w)
		unresolved := newTable(w)
		unresolved.AppendHeader(table.Row{"Component", "Parameter", "Type", "Reason", "Required"})
		for _, u := range plan.Unresolved {
			unresolved.AppendRow(table.Row{u.Component, u.Parameter, u.Type, u.Reason, u.Required})
		}
		unresolved.Render()
	}
	if len(plan.Skipped) > 0 {
		fmt.Fprintf(w, "\nskipped: %s\n", strings.Join(plan.Skipped, ", "))
	}
}
