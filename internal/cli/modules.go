package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
)

func newModulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := builtin.Catalog()
			if err != nil {
				return err
			}
			renderModules(cmd.OutOrStdout(), catalog.List())
			return nil
		},
		DisableAutoGenTag: true,
	}
	return cmd
}

func renderModules(w io.Writer, modules []*compose.Module) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Module", "Version", "Plugin", "Dependencies", "Components"})
	for _, m := range modules {
		deps := ""
		for i, d := range m.Dependencies {
			if i > 0 {
				deps += "\n"
			}
			deps += d.Name
			if d.Version != "" {
				deps += "@" + d.Version
			}
			if d.Plugin {
				deps += " (plugin)"
			}
		}
		t.AppendRow(table.Row{m.Name, m.Version, m.Plugin, deps, fmt.Sprint(len(m.Components))})
	}
	t.Render()
}
