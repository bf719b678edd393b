package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/loomhq/loom/core/api"
	"github.com/loomhq/loom/core/plugin"
	"github.com/loomhq/loom/internal/configure"
	"github.com/loomhq/loom/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func fieldsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Check submitted field values against plugin types",
	}
	cmd.AddCommand(fieldsGroupCmd(a))
	return cmd
}

type groupOutput struct {
	Nonsensitive map[string]string `json:"nonsensitive"`
	Sensitive    []string          `json:"sensitive"`
	Dropped      []string          `json:"dropped"`
}

func fieldsGroupCmd(a *app) *cobra.Command {
	var kind, file string

	cmd := &cobra.Command{
		Use:   "group NAME [FIELD=VALUE...]",
		Short: "Show which submitted fields a plugin type accepts",
		Long: `Group field values the way a field update request is grouped: overridable admin
fields and user fields are kept and split by sensitivity, every other field is dropped.
Sensitive values are never printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.FieldUpdateRequest{}
			if file != "" {
				data, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("invalid field update request: %w", err)
				}
			}
			for _, arg := range args[1:] {
				k, v, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected FIELD=VALUE, got %q", arg)
				}
				req[k] = v
			}

			if err := a.registry.Reload(cmd.Context()); err != nil {
				return err
			}
			svc := configure.NewService(a.registry, metrics.New(prometheus.NewRegistry()), a.logger)
			g, err := svc.GroupFields(cmd.Context(), plugin.Kind(kind), args[0], req)
			if err != nil {
				return err
			}

			return printJSON(cmd, groupOutput{
				Nonsensitive: g.Fields.Nonsensitive,
				Sensitive:    slices.Sorted(maps.Keys(g.Fields.Sensitive)),
				Dropped:      append([]string{}, g.Dropped...),
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(plugin.KindProvider), "Plugin kind: providertypes or automatortypes")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON field update request to read, - for stdin")
	return cmd
}
