package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/mod/semver"
)

// Kind is the category of plugin a descriptor belongs to. The values double as the directory
// and API path segment the plugins are registered under.
type Kind string

const (
	KindProvider  Kind = "providertypes"
	KindAutomator Kind = "automatortypes"
)

func (k Kind) Valid() bool {
	return k == KindProvider || k == KindAutomator
}

// ResourceFormat is how a plugin resource is uploaded and stored.
type ResourceFormat string

const (
	ResourceFormatFile    ResourceFormat = "file"
	ResourceFormatArchive ResourceFormat = "archive"
)

// ResourceTypeSpecification describes a kind of resource, such as cookbooks or credentials
// files, that a plugin needs.
type ResourceTypeSpecification struct {
	Format      ResourceFormat `json:"format"`
	Permissions string         `json:"permissions,omitempty"`
}

var ErrMissingParameters = errors.New("plugin type is missing its parameter specifications")

// Descriptor is the registered definition of a provider or automator plugin type: what
// parameters admins and users supply to it and which resources it needs.
type Descriptor struct {
	kind          Kind
	name          string
	description   string
	version       string
	parameters    map[ParameterType]ParametersSpecification
	resourceTypes map[string]ResourceTypeSpecification
}

type DescriptorConfig struct {
	Kind          Kind
	Name          string
	Description   string
	Version       string
	Parameters    map[ParameterType]ParametersSpecification
	ResourceTypes map[string]ResourceTypeSpecification
}

func NewDescriptor(cfg DescriptorConfig) (*Descriptor, error) {
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("invalid plugin kind %q", cfg.Kind)
	}
	if cfg.Name == "" {
		return nil, errors.New("plugin name must be specified")
	}
	if cfg.Version != "" && !semver.IsValid(cfg.Version) {
		return nil, fmt.Errorf("plugin %s/%s: invalid version %q", cfg.Kind, cfg.Name, cfg.Version)
	}

	d := &Descriptor{
		kind:          cfg.Kind,
		name:          cfg.Name,
		description:   cfg.Description,
		version:       cfg.Version,
		parameters:    make(map[ParameterType]ParametersSpecification, 2),
		resourceTypes: make(map[string]ResourceTypeSpecification, len(cfg.ResourceTypes)),
	}
	for role, spec := range cfg.Parameters {
		if !role.Valid() {
			return nil, fmt.Errorf("plugin %s/%s: invalid parameter type %q", cfg.Kind, cfg.Name, role)
		}
		d.parameters[role] = spec
	}
	for _, role := range []ParameterType{ParameterTypeAdmin, ParameterTypeUser} {
		if _, ok := d.parameters[role]; !ok {
			d.parameters[role] = EmptyParametersSpecification()
		}
	}
	for name, rt := range cfg.ResourceTypes {
		if rt.Format != ResourceFormatFile && rt.Format != ResourceFormatArchive {
			return nil, fmt.Errorf("plugin %s/%s: resource type %s has unknown format %q", cfg.Kind, cfg.Name, name, rt.Format)
		}
		d.resourceTypes[name] = rt
	}
	return d, nil
}

func (d *Descriptor) Kind() Kind          { return d.kind }
func (d *Descriptor) Name() string        { return d.name }
func (d *Descriptor) Description() string { return d.description }
func (d *Descriptor) Version() string     { return d.version }

// ID is the registry path of the plugin, e.g. "providertypes/ec2".
func (d *Descriptor) ID() string { return string(d.kind) + "/" + d.name }

func (d *Descriptor) ResourceTypeNames() []string {
	return slices.Sorted(maps.Keys(d.resourceTypes))
}

// Parameters returns the specification for the given role, and false if there is none.
func (d *Descriptor) Parameters(role ParameterType) (ParametersSpecification, bool) {
	spec, ok := d.parameters[role]
	return spec, ok
}

func (d *Descriptor) ResourceType(name string) (ResourceTypeSpecification, bool) {
	rt, ok := d.resourceTypes[name]
	return rt, ok
}

func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.kind == o.kind &&
		d.name == o.name &&
		d.description == o.description &&
		d.version == o.version &&
		maps.EqualFunc(d.parameters, o.parameters, ParametersSpecification.Equal) &&
		maps.Equal(d.resourceTypes, o.resourceTypes)
}

type descriptorJSON struct {
	Name          string                                    `json:"name"`
	Description   string                                    `json:"description,omitempty"`
	Version       string                                    `json:"version,omitempty"`
	Parameters    map[ParameterType]ParametersSpecification `json:"parameters"`
	ResourceTypes map[string]ResourceTypeSpecification      `json:"resourceTypes,omitempty"`
}

func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{
		Name:          d.name,
		Description:   d.description,
		Version:       d.version,
		Parameters:    d.parameters,
		ResourceTypes: d.resourceTypes,
	})
}

// DecodeDescriptor validates a JSON plugin definition against the definition schema and builds
// a descriptor of the given kind from it.
func DecodeDescriptor(kind Kind, data []byte) (*Descriptor, error) {
	if err := validateDefinition(data); err != nil {
		return nil, err
	}
	var raw descriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid %s definition: %w", kind, err)
	}
	return NewDescriptor(DescriptorConfig{
		Kind:          kind,
		Name:          raw.Name,
		Description:   raw.Description,
		Version:       raw.Version,
		Parameters:    raw.Parameters,
		ResourceTypes: raw.ResourceTypes,
	})
}
