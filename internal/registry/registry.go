package registry

import (
	"context"
	"sync/atomic"

	"github.com/loomhq/loom/core/plugin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry holds the current snapshot of plugin types. Reload builds a complete new snapshot
// and swaps it in, so a failed reload leaves the previous snapshot in place.
type Registry struct {
	dir     string
	logger  *zerolog.Logger
	current atomic.Pointer[Snapshot]
}

// NewRegistry returns a registry serving an empty snapshot until Reload or Swap is called. A nil
// logger means the global logger.
func NewRegistry(dir string, logger *zerolog.Logger) *Registry {
	if logger == nil {
		logger = &log.Logger
	}
	r := &Registry{
		dir:    dir,
		logger: logger,
	}
	empty, _ := NewSnapshot()
	r.current.Store(empty)
	return r
}

func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Swap installs s as the current snapshot and returns the previous one.
func (r *Registry) Swap(s *Snapshot) *Snapshot {
	return r.current.Swap(s)
}

func (r *Registry) Lookup(kind plugin.Kind, name string) (*plugin.Descriptor, error) {
	return r.Snapshot().Lookup(kind, name)
}

// Reload loads every plugin definition under the registry directory and swaps in the result.
func (r *Registry) Reload(ctx context.Context) error {
	s, err := LoadDir(ctx, r.dir)
	if err != nil {
		r.logger.Error().Err(err).Str("dir", r.dir).Msg("failed to reload plugin types")
		return err
	}
	r.Swap(s)
	r.logger.Info().
		Str("dir", r.dir).
		Int("providertypes", len(s.List(plugin.KindProvider))).
		Int("automatortypes", len(s.List(plugin.KindAutomator))).
		Msg("reloaded plugin types")
	return nil
}
