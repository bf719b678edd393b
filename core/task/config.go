package task

import (
	"encoding/json"
	"maps"
	"slices"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// TaskConfig is everything a provisioner worker needs to execute one task. It is built once per
// dispatched task and not modified afterwards; WithResults derives an updated copy.
type TaskConfig struct {
	node          NodeProperties
	provider      Provider
	nodes         map[string]NodeProperties
	serviceAction TaskServiceAction
	clusterConfig json.RawMessage
	results       ProvisionerResults
}

// NewTaskConfig copies its arguments. A nil clusterConfig is treated as an empty object.
func NewTaskConfig(
	node NodeProperties,
	provider Provider,
	nodes map[string]NodeProperties,
	serviceAction TaskServiceAction,
	clusterConfig json.RawMessage,
	results ProvisionerResults,
) *TaskConfig {
	cfg := &TaskConfig{
		node:          node.clone(),
		provider:      provider.clone(),
		nodes:         make(map[string]NodeProperties, len(nodes)),
		serviceAction: serviceAction.clone(),
		clusterConfig: slices.Clone(clusterConfig),
		results:       results.clone(),
	}
	for id, n := range nodes {
		cfg.nodes[id] = n.clone()
	}
	if len(cfg.clusterConfig) == 0 {
		cfg.clusterConfig = json.RawMessage("{}")
	}
	return cfg
}

// NodeProperties returns the properties of the node the task runs on.
func (c *TaskConfig) NodeProperties() NodeProperties { return c.node.clone() }

func (c *TaskConfig) Provider() Provider { return c.provider.clone() }

func (c *TaskConfig) ServiceAction() TaskServiceAction { return c.serviceAction.clone() }

func (c *TaskConfig) ClusterConfig() json.RawMessage { return slices.Clone(c.clusterConfig) }

func (c *TaskConfig) ProvisionerResults() ProvisionerResults { return c.results.clone() }

// Nodes returns the properties of every node in the cluster, keyed by node id.
func (c *TaskConfig) Nodes() map[string]NodeProperties {
	out := make(map[string]NodeProperties, len(c.nodes))
	for id, n := range c.nodes {
		out[id] = n.clone()
	}
	return out
}

// WithResults returns a copy of the task config carrying the given results in place of its own.
func (c *TaskConfig) WithResults(results ProvisionerResults) *TaskConfig {
	return NewTaskConfig(c.node, c.provider, c.nodes, c.serviceAction, c.clusterConfig, results)
}

// Equal compares every field. JSON values are compared structurally.
func (c *TaskConfig) Equal(o *TaskConfig) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.FixedEqual(o) && c.results.Equal(o.results)
}

// FixedEqual compares everything except the provisioner results.
func (c *TaskConfig) FixedEqual(o *TaskConfig) bool {
	return c.node.Equal(o.node) &&
		c.provider.Equal(o.provider) &&
		maps.EqualFunc(c.nodes, o.nodes, NodeProperties.Equal) &&
		c.serviceAction.Equal(o.serviceAction) &&
		jsonpatch.Equal(c.clusterConfig, o.clusterConfig)
}
