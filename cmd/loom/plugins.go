package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/loomhq/loom/core/plugin"
	"github.com/loomhq/loom/internal/registry"
	"github.com/spf13/cobra"
)

func pluginsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List and validate plugin type definitions",
	}
	cmd.AddCommand(pluginsListCmd(a))
	cmd.AddCommand(pluginsValidateCmd())
	return cmd
}

func pluginsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered provider and automator types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.registry.Reload(cmd.Context()); err != nil {
				return err
			}
			s := a.registry.Snapshot()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tVERSION\tDESCRIPTION")
			for _, kind := range []plugin.Kind{plugin.KindProvider, plugin.KindAutomator} {
				for _, d := range s.List(kind) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Kind(), d.Name(), d.Version(), d.Description())
				}
			}
			return w.Flush()
		},
	}
}

func pluginsValidateCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check plugin definition files against the definition schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := plugin.Kind(kind)
			if !k.Valid() {
				return fmt.Errorf("unknown plugin kind %q", kind)
			}
			for _, path := range args {
				d, err := registry.LoadFile(k, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", path, d.ID())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(plugin.KindProvider), "Plugin kind: providertypes or automatortypes")
	return cmd
}
