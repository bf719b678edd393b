package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loomhq/loom/core/task"
	"github.com/loomhq/loom/internal/dispatch"
	"github.com/loomhq/loom/internal/metrics"
	"github.com/loomhq/loom/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// taskEnvelope is the structured form of a task config used for input and output by the CLI.
type taskEnvelope struct {
	Node          task.NodeProperties            `json:"node"`
	Provider      task.Provider                  `json:"provider"`
	Nodes         map[string]task.NodeProperties `json:"nodes"`
	ServiceAction task.TaskServiceAction         `json:"service"`
	ClusterConfig json.RawMessage                `json:"cluster"`
	Results       task.ProvisionerResults        `json:"results"`
}

func (e taskEnvelope) config() *task.TaskConfig {
	return task.NewTaskConfig(e.Node, e.Provider, e.Nodes, e.ServiceAction, e.ClusterConfig, e.Results)
}

func envelopeOf(cfg *task.TaskConfig) taskEnvelope {
	return taskEnvelope{
		Node:          cfg.NodeProperties(),
		Provider:      cfg.Provider(),
		Nodes:         cfg.Nodes(),
		ServiceAction: cfg.ServiceAction(),
		ClusterConfig: cfg.ClusterConfig(),
		Results:       cfg.ProvisionerResults(),
	}
}

func readEnvelope(cmd *cobra.Command, name string) (*task.TaskConfig, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	var e taskEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("invalid task config: %w", err)
	}
	return e.config(), nil
}

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Encode, decode and exchange task documents",
	}
	cmd.AddCommand(taskEncodeCmd())
	cmd.AddCommand(taskDecodeCmd())
	cmd.AddCommand(taskValidateCmd())
	cmd.AddCommand(taskExchangeCmd(a))
	return cmd
}

func taskEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode FILE",
		Short: "Encode a task config into the document sent to provisioner workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readEnvelope(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := task.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func taskDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode a task document into its task config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := task.Unmarshal(data)
			if err != nil {
				return err
			}
			return printJSON(cmd, envelopeOf(cfg))
		},
	}
}

func taskValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a task document against the task document schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := task.Unmarshal(data); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return err
		},
	}
}

func taskExchangeCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exchange FILE WORKER [ARG...]",
		Short: "Run a worker command on a task config and print the config it returns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readEnvelope(cmd, args[0])
			if err != nil {
				return err
			}

			publisher := pubsub.NewSimplePublisher[dispatch.Event]()
			publisher.AddSubscriber(dispatch.NewLoggingSubscriber(a.logger))
			exchanger := dispatch.NewExchanger(
				&dispatch.ExecTransport{Path: args[1], Args: args[2:]},
				publisher,
				metrics.New(prometheus.NewRegistry()),
				a.logger,
			)

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			next, err := exchanger.Exchange(ctx, cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd, envelopeOf(next))
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up on the worker after this long")
	return cmd
}
