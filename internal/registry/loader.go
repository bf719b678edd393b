package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomhq/loom/core/plugin"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"
)

// LoadDir reads plugin definitions laid out as <dir>/<kind>/<name>.json, .yaml or .yml and
// builds a snapshot from them. A missing kind directory is treated as empty.
func LoadDir(ctx context.Context, dir string) (*Snapshot, error) {
	var paths []string
	var kinds []plugin.Kind
	for _, kind := range []plugin.Kind{plugin.KindProvider, plugin.KindAutomator} {
		entries, err := os.ReadDir(filepath.Join(dir, string(kind)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !isDefinitionFile(e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(dir, string(kind), e.Name()))
			kinds = append(kinds, kind)
		}
	}

	descriptors := make([]*plugin.Descriptor, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := LoadFile(kinds[i], paths[i])
			if err != nil {
				return err
			}
			descriptors[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewSnapshot(descriptors...)
}

// LoadFile reads a single plugin definition. YAML definitions are converted to JSON first and
// validated the same way.
func LoadFile(kind plugin.Kind, path string) (*plugin.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	d, err := plugin.DecodeDescriptor(kind, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
