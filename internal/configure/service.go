package configure

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/loomhq/loom/core/api"
	"github.com/loomhq/loom/core/plugin"
	"github.com/loomhq/loom/core/task"
	"github.com/loomhq/loom/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// PluginLookup finds registered plugin types. *registry.Registry implements it.
type PluginLookup interface {
	Lookup(kind plugin.Kind, name string) (*plugin.Descriptor, error)
}

// Service applies submitted field values to providers and clusters. Only fields the plugin type
// lets the submitter set are applied; everything else is dropped.
type Service struct {
	plugins PluginLookup
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

// NewService falls back to the global logger when logger is nil. m may be nil.
func NewService(plugins PluginLookup, m *metrics.Metrics, logger *zerolog.Logger) *Service {
	if logger == nil {
		logger = &log.Logger
	}
	return &Service{
		plugins: plugins,
		metrics: m,
		logger:  logger,
	}
}

// Grouped is the outcome of checking a field update request against a plugin type.
type Grouped struct {
	Fields plugin.PluginFields
	// Dropped names the submitted fields that were not applied, sorted.
	Dropped []string
}

// GroupFields looks up the plugin type and groups the request against it.
func (s *Service) GroupFields(ctx context.Context, kind plugin.Kind, name string, req api.FieldUpdateRequest) (*Grouped, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.plugins.Lookup(kind, name)
	if err != nil {
		return nil, err
	}

	input := req.Fields()
	pf, err := d.GroupFields(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.ID(), err)
	}

	var dropped []string
	for _, k := range slices.Sorted(maps.Keys(input)) {
		_, sensitive := pf.Sensitive[k]
		_, nonsensitive := pf.Nonsensitive[k]
		if !sensitive && !nonsensitive {
			dropped = append(dropped, k)
		}
	}

	if s.metrics != nil {
		s.metrics.FieldsGrouped(d.ID(), len(pf.Sensitive), len(pf.Nonsensitive), len(dropped))
	}
	s.logger.Debug().
		Str("plugin", d.ID()).
		Object("fields", pf).
		Int("dropped", len(dropped)).
		Msg("grouped plugin fields")

	return &Grouped{Fields: pf, Dropped: dropped}, nil
}

// ProviderUpdate is a provider with accepted nonsensitive fields applied. Sensitive values are
// not stored on the provider; the caller persists them as credentials.
type ProviderUpdate struct {
	Provider task.Provider
	Grouped
}

// ConfigureProvider applies a field update request to provider.
func (s *Service) ConfigureProvider(ctx context.Context, provider task.Provider, req api.FieldUpdateRequest) (*ProviderUpdate, error) {
	g, err := s.GroupFields(ctx, plugin.KindProvider, provider.ProviderType, req)
	if err != nil {
		return nil, err
	}
	return &ProviderUpdate{
		Provider: provider.WithFields(g.Fields.Nonsensitive),
		Grouped:  *g,
	}, nil
}

type ClusterUpdate struct {
	Config   json.RawMessage
	Provider *ProviderUpdate
	Restart  bool
}

// ConfigureCluster merge patches req.Config into clusterConfig and applies req.ProviderFields to
// the cluster's provider. With no provider fields the provider is returned unchanged.
func (s *Service) ConfigureCluster(
	ctx context.Context,
	clusterConfig json.RawMessage,
	provider task.Provider,
	req api.ClusterConfigureRequest,
) (*ClusterUpdate, error) {
	config, err := mergeClusterConfig(clusterConfig, req.Config)
	if err != nil {
		return nil, err
	}

	update := &ProviderUpdate{
		Provider: provider.WithFields(nil),
		Grouped:  Grouped{Fields: plugin.NewPluginFields()},
	}
	if len(req.ProviderFields) != 0 {
		update, err = s.ConfigureProvider(ctx, provider, req.ProviderFields)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("provider", provider.Name).
		Bool("restart", req.Restart).
		Int("dropped", len(update.Dropped)).
		Msg("configured cluster")

	return &ClusterUpdate{
		Config:   config,
		Provider: update,
		Restart:  req.Restart,
	}, nil
}

func mergeClusterConfig(current, patch json.RawMessage) (json.RawMessage, error) {
	if len(current) == 0 {
		current = json.RawMessage("{}")
	}
	if len(patch) == 0 {
		return current, nil
	}
	if !gjson.ParseBytes(patch).IsObject() {
		return nil, fmt.Errorf("cluster config must be a JSON object")
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, fmt.Errorf("error merging cluster config: %w", err)
	}
	return merged, nil
}
