package registry

import (
	"maps"
	"slices"

	"github.com/loomhq/loom/core/plugin"
	"golang.org/x/mod/semver"
)

// Snapshot is an immutable set of registered plugin types. A new snapshot is built for every
// reload, so readers holding an old one are never affected by a reload.
type Snapshot struct {
	descriptors map[plugin.Kind]map[string]*plugin.Descriptor
}

// NewSnapshot indexes the given descriptors. When a plugin type is defined more than once the
// highest version wins; an unversioned definition loses to any versioned one.
func NewSnapshot(descriptors ...*plugin.Descriptor) (*Snapshot, error) {
	s := &Snapshot{
		descriptors: make(map[plugin.Kind]map[string]*plugin.Descriptor),
	}
	for _, d := range descriptors {
		byName, ok := s.descriptors[d.Kind()]
		if !ok {
			byName = make(map[string]*plugin.Descriptor)
			s.descriptors[d.Kind()] = byName
		}

		existing, ok := byName[d.Name()]
		if !ok {
			byName[d.Name()] = d
			continue
		}
		// semver.Compare orders the empty string below every valid version
		switch semver.Compare(d.Version(), existing.Version()) {
		case 0:
			return nil, &DuplicateVersionError{Kind: d.Kind(), Name: d.Name(), Version: d.Version()}
		case 1:
			byName[d.Name()] = d
		}
	}
	return s, nil
}

// Lookup returns the descriptor registered under kind and name, or a *NotFoundError.
func (s *Snapshot) Lookup(kind plugin.Kind, name string) (*plugin.Descriptor, error) {
	d, ok := s.descriptors[kind][name]
	if !ok {
		return nil, &NotFoundError{Kind: kind, Name: name}
	}
	return d, nil
}

// List returns the descriptors of the given kind sorted by name.
func (s *Snapshot) List(kind plugin.Kind) []*plugin.Descriptor {
	byName := s.descriptors[kind]
	out := make([]*plugin.Descriptor, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		out = append(out, byName[name])
	}
	return out
}

func (s *Snapshot) Len() int {
	n := 0
	for _, byName := range s.descriptors {
		n += len(byName)
	}
	return n
}
