package plugin

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const redacted = "******"

// PluginFields is the result of grouping raw field values against a plugin's parameter
// specifications. A field lands in exactly one of the two maps.
type PluginFields struct {
	Sensitive    map[string]string `json:"sensitive"`
	Nonsensitive map[string]string `json:"nonsensitive"`
}

func NewPluginFields() PluginFields {
	return PluginFields{
		Sensitive:    make(map[string]string),
		Nonsensitive: make(map[string]string),
	}
}

func (p PluginFields) Len() int {
	return len(p.Sensitive) + len(p.Nonsensitive)
}

func (p PluginFields) Equal(o PluginFields) bool {
	return maps.Equal(p.Sensitive, o.Sensitive) && maps.Equal(p.Nonsensitive, o.Nonsensitive)
}

// MarshalZerologObject logs nonsensitive values as they are and sensitive values masked.
func (p PluginFields) MarshalZerologObject(e *zerolog.Event) {
	for _, k := range slices.Sorted(maps.Keys(p.Nonsensitive)) {
		e.Str(k, p.Nonsensitive[k])
	}
	for _, k := range slices.Sorted(maps.Keys(p.Sensitive)) {
		e.Str(k, redacted)
	}
}

type resolution int

const (
	unresolved resolution = iota
	resolvedAdmin
	resolvedUser
)

// resolve decides which specification, if any, allows the field to be set. An admin field is
// only settable here when it is overridable. A non-overridable admin field shadows a user field
// of the same name, so it can't be set through the user specification either.
func resolve(admin, user ParametersSpecification, name string) (FieldSchema, resolution) {
	if fs, ok := admin.Field(name); ok {
		if fs.Override() {
			return fs, resolvedAdmin
		}
		return FieldSchema{}, unresolved
	}
	if fs, ok := user.Field(name); ok {
		return fs, resolvedUser
	}
	return FieldSchema{}, unresolved
}

// GroupFields filters input down to the fields that are overridable admin fields or user fields,
// and groups them by sensitivity. Any other field is dropped and only logged, by name, at info
// level on the global zerolog logger (log.Logger).
func (d *Descriptor) GroupFields(input map[string]string) (PluginFields, error) {
	admin, ok := d.parameters[ParameterTypeAdmin]
	if !ok {
		return PluginFields{}, ErrMissingParameters
	}
	user, ok := d.parameters[ParameterTypeUser]
	if !ok {
		return PluginFields{}, ErrMissingParameters
	}

	out := NewPluginFields()
	for _, field := range slices.Sorted(maps.Keys(input)) {
		fs, res := resolve(admin, user, field)
		if res == unresolved {
			log.Info().
				Str("plugin", d.ID()).
				Str("field", field).
				Msg("Ignoring field as it is not an overridable admin field or user field")
			continue
		}
		if fs.Sensitive() {
			out.Sensitive[field] = input[field]
		} else {
			out.Nonsensitive[field] = input[field]
		}
	}
	return out, nil
}
