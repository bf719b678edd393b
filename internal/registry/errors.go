package registry

import "github.com/loomhq/loom/core/plugin"

type NotFoundError struct {
	Kind plugin.Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return "Plugin type " + string(e.Kind) + "/" + e.Name + " not found"
}

// DuplicateVersionError is returned when two definitions of the same plugin type carry the same
// version, so neither can be preferred.
type DuplicateVersionError struct {
	Kind    plugin.Kind
	Name    string
	Version string
}

func (e *DuplicateVersionError) Error() string {
	if e.Version == "" {
		return "Plugin type " + string(e.Kind) + "/" + e.Name + " is defined more than once without a version"
	}
	return "Plugin type " + string(e.Kind) + "/" + e.Name + " is defined more than once at version " + e.Version
}
