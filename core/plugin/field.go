package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrFieldLabelRequired = errors.New("field label must be specified")
	ErrFieldTypeRequired  = errors.New("field type must be specified")
)

// Field types that the UI and provisioners know how to present. The type is an open tag, so
// plugins may declare others.
const (
	FieldTypeText     = "text"
	FieldTypePassword = "password"
	FieldTypeSelect   = "select"
)

// FieldSchemaConfig holds the attributes used to construct a FieldSchema. Only Label and Type
// are required.
type FieldSchemaConfig struct {
	Label        string
	Type         string
	Tip          string
	Options      []string
	DefaultValue *string
	Override     bool
	Sensitive    bool
}

// FieldSchema describes a field that a provisioner plugin understands, and what kind of value
// is expected for it. It is immutable once constructed.
type FieldSchema struct {
	label        string
	fieldType    string
	tip          string
	options      map[string]struct{}
	defaultValue *string
	override     bool
	sensitive    bool
}

func NewFieldSchema(cfg FieldSchemaConfig) (FieldSchema, error) {
	if cfg.Type == "" {
		return FieldSchema{}, ErrFieldTypeRequired
	}
	if cfg.Label == "" {
		return FieldSchema{}, ErrFieldLabelRequired
	}

	fs := FieldSchema{
		label:     cfg.Label,
		fieldType: cfg.Type,
		tip:       cfg.Tip,
		override:  cfg.Override,
		sensitive: cfg.Sensitive,
	}
	if cfg.Options != nil {
		fs.options = make(map[string]struct{}, len(cfg.Options))
		for _, o := range cfg.Options {
			fs.options[o] = struct{}{}
		}
	}
	if cfg.DefaultValue != nil {
		v := *cfg.DefaultValue
		fs.defaultValue = &v
	}
	return fs, nil
}

// MustFieldSchema is NewFieldSchema for statically known schemas. It panics on error.
func MustFieldSchema(cfg FieldSchemaConfig) FieldSchema {
	fs, err := NewFieldSchema(cfg)
	if err != nil {
		panic(err)
	}
	return fs
}

func (f FieldSchema) Label() string { return f.label }

// Type returns the type of value expected for the field, such as "text", "password" or "select".
func (f FieldSchema) Type() string { return f.fieldType }

func (f FieldSchema) Tip() string { return f.tip }

// Options returns the allowed values in sorted order, or nil if the field has no options.
func (f FieldSchema) Options() []string {
	if f.options == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(f.options))
}

// DefaultValue returns the default value and whether one was declared.
func (f FieldSchema) DefaultValue() (string, bool) {
	if f.defaultValue == nil {
		return "", false
	}
	return *f.defaultValue, true
}

// Override reports whether an admin defined value may be replaced by a user supplied one.
func (f FieldSchema) Override() bool { return f.override }

// Sensitive reports whether the value is a secret that must never be logged or displayed.
func (f FieldSchema) Sensitive() bool { return f.sensitive }

// IsChoice reports whether the field only accepts one of its options.
func (f FieldSchema) IsChoice() bool { return f.fieldType == FieldTypeSelect }

func (f FieldSchema) Equal(o FieldSchema) bool {
	if f.label != o.label || f.fieldType != o.fieldType || f.tip != o.tip {
		return false
	}
	if f.override != o.override || f.sensitive != o.sensitive {
		return false
	}
	if (f.defaultValue == nil) != (o.defaultValue == nil) {
		return false
	}
	if f.defaultValue != nil && *f.defaultValue != *o.defaultValue {
		return false
	}
	if (f.options == nil) != (o.options == nil) {
		return false
	}
	return maps.Equal(f.options, o.options)
}

func (f FieldSchema) String() string {
	return fmt.Sprintf("FieldSchema{label=%s, type=%s, override=%t, sensitive=%t}",
		f.label, f.fieldType, f.override, f.sensitive)
}

type fieldSchemaJSON struct {
	Label        string   `json:"label"`
	Type         string   `json:"type"`
	Tip          string   `json:"tip,omitempty"`
	Options      []string `json:"options,omitempty"`
	DefaultValue *string  `json:"default,omitempty"`
	Override     bool     `json:"override,omitempty"`
	Sensitive    bool     `json:"sensitive,omitempty"`
}

func (f FieldSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldSchemaJSON{
		Label:        f.label,
		Type:         f.fieldType,
		Tip:          f.tip,
		Options:      f.Options(),
		DefaultValue: f.defaultValue,
		Override:     f.override,
		Sensitive:    f.sensitive,
	})
}

func (f *FieldSchema) UnmarshalJSON(data []byte) error {
	var raw fieldSchemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fs, err := NewFieldSchema(FieldSchemaConfig(raw))
	if err != nil {
		return err
	}
	*f = fs
	return nil
}
