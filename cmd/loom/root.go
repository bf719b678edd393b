package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/loomhq/loom/internal/config"
	"github.com/loomhq/loom/internal/logging"
	"github.com/loomhq/loom/internal/registry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand, set up before any of them runs.
type app struct {
	config   *config.Config
	logger   *zerolog.Logger
	registry *registry.Registry
}

func rootCmd() *cobra.Command {
	a := &app{}
	var pluginDir string

	cmd := &cobra.Command{
		Use:           "loom",
		Short:         "Inspect loom plugin types and task documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}
			a.config = cfg
			a.logger = logging.NewLogger(cmd.ErrOrStderr(), level, cfg.LogPretty())

			if pluginDir == "" {
				pluginDir = cfg.PluginDir()
			}
			a.registry = registry.NewRegistry(pluginDir, a.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&pluginDir, "plugin-dir", "", "Directory of plugin definitions (default: <loom path>/plugins)")

	cmd.AddCommand(pluginsCmd(a))
	cmd.AddCommand(fieldsCmd(a))
	cmd.AddCommand(taskCmd(a))
	return cmd
}

// readInput reads the named file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
