package plugin

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// ParameterType is the role a set of parameters is scoped to.
type ParameterType string

const (
	ParameterTypeAdmin ParameterType = "admin"
	ParameterTypeUser  ParameterType = "user"
)

func (p ParameterType) Valid() bool {
	return p == ParameterTypeAdmin || p == ParameterTypeUser
}

// ParametersSpecification is the set of fields a plugin exposes to one submitter role.
type ParametersSpecification struct {
	fields   map[string]FieldSchema
	required [][]string
}

// NewParametersSpecification copies fields and required. Each entry of required is an
// alternative set of field names that together satisfy the plugin.
func NewParametersSpecification(fields map[string]FieldSchema, required [][]string) ParametersSpecification {
	spec := ParametersSpecification{
		fields: make(map[string]FieldSchema, len(fields)),
	}
	maps.Copy(spec.fields, fields)
	for _, set := range required {
		spec.required = append(spec.required, slices.Clone(set))
	}
	return spec
}

// EmptyParametersSpecification has no fields and no requirements.
func EmptyParametersSpecification() ParametersSpecification {
	return NewParametersSpecification(nil, nil)
}

func (p ParametersSpecification) Field(name string) (FieldSchema, bool) {
	fs, ok := p.fields[name]
	return fs, ok
}

func (p ParametersSpecification) Fields() map[string]FieldSchema {
	return maps.Clone(p.fields)
}

func (p ParametersSpecification) FieldNames() []string {
	return slices.Sorted(maps.Keys(p.fields))
}

func (p ParametersSpecification) Required() [][]string {
	out := make([][]string, 0, len(p.required))
	for _, set := range p.required {
		out = append(out, slices.Clone(set))
	}
	return out
}

func (p ParametersSpecification) Len() int {
	return len(p.fields)
}

// SatisfiedBy reports whether values contains every field of at least one required set.
// A specification without required sets is always satisfied.
func (p ParametersSpecification) SatisfiedBy(values map[string]string) bool {
	if len(p.required) == 0 {
		return true
	}
	for _, set := range p.required {
		satisfied := true
		for _, name := range set {
			if _, ok := values[name]; !ok {
				satisfied = false
				break
			}
		}
		if satisfied {
			return true
		}
	}
	return false
}

func (p ParametersSpecification) Equal(o ParametersSpecification) bool {
	if !maps.EqualFunc(p.fields, o.fields, FieldSchema.Equal) {
		return false
	}
	return slices.EqualFunc(p.required, o.required, slices.Equal[[]string])
}

type parametersJSON struct {
	Fields   map[string]FieldSchema `json:"fields"`
	Required [][]string             `json:"required,omitempty"`
}

func (p ParametersSpecification) MarshalJSON() ([]byte, error) {
	return json.Marshal(parametersJSON{Fields: p.fields, Required: p.required})
}

func (p *ParametersSpecification) UnmarshalJSON(data []byte) error {
	var raw parametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i, set := range raw.Required {
		for _, name := range set {
			if _, ok := raw.Fields[name]; !ok {
				return fmt.Errorf("required set %d names unknown field %q", i, name)
			}
		}
	}
	*p = NewParametersSpecification(raw.Fields, raw.Required)
	return nil
}
