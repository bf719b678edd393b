package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSchemaConstruction(t *testing.T) {
	_, err := NewFieldSchema(FieldSchemaConfig{Label: "Region"})
	assert.ErrorIs(t, err, ErrFieldTypeRequired)

	_, err = NewFieldSchema(FieldSchemaConfig{Type: FieldTypeText})
	assert.ErrorIs(t, err, ErrFieldLabelRequired)

	fs, err := NewFieldSchema(FieldSchemaConfig{Label: "Region", Type: FieldTypeText})
	require.NoError(t, err)
	assert.Equal(t, "Region", fs.Label())
	assert.Equal(t, FieldTypeText, fs.Type())
	assert.Equal(t, "", fs.Tip())
	assert.Nil(t, fs.Options())
	assert.False(t, fs.Override())
	assert.False(t, fs.Sensitive())
	assert.False(t, fs.IsChoice())

	_, ok := fs.DefaultValue()
	assert.False(t, ok)
}

func TestFieldSchemaCopiesInput(t *testing.T) {
	def := "m1.small"
	opts := []string{"m1.small", "m1.large"}
	fs := MustFieldSchema(FieldSchemaConfig{
		Label:        "Flavor",
		Type:         FieldTypeSelect,
		Options:      opts,
		DefaultValue: &def,
	})

	def = "changed"
	opts[0] = "changed"

	v, ok := fs.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, "m1.small", v)
	assert.Equal(t, []string{"m1.large", "m1.small"}, fs.Options())
	assert.True(t, fs.IsChoice())

	fs.Options()[0] = "mutated"
	assert.Equal(t, []string{"m1.large", "m1.small"}, fs.Options())
}

func TestFieldSchemaEqual(t *testing.T) {
	def := "x"
	a := MustFieldSchema(FieldSchemaConfig{Label: "A", Type: "text", Options: []string{"1", "2"}, DefaultValue: &def})
	b := MustFieldSchema(FieldSchemaConfig{Label: "A", Type: "text", Options: []string{"2", "1"}, DefaultValue: &def})
	assert.True(t, a.Equal(b))

	c := MustFieldSchema(FieldSchemaConfig{Label: "A", Type: "text", Options: []string{"1", "2"}})
	assert.False(t, a.Equal(c))

	d := MustFieldSchema(FieldSchemaConfig{Label: "A", Type: "text", Options: []string{"1", "2"}, DefaultValue: &def, Sensitive: true})
	assert.False(t, a.Equal(d))
}

func TestFieldSchemaJSON(t *testing.T) {
	var fs FieldSchema
	err := json.Unmarshal([]byte(`{
		"label": "API key",
		"type": "password",
		"tip": "Your API key",
		"override": true,
		"sensitive": true
	}`), &fs)
	require.NoError(t, err)
	assert.Equal(t, "API key", fs.Label())
	assert.Equal(t, FieldTypePassword, fs.Type())
	assert.Equal(t, "Your API key", fs.Tip())
	assert.True(t, fs.Override())
	assert.True(t, fs.Sensitive())

	marshaled, err := json.Marshal(fs)
	require.NoError(t, err)
	var back FieldSchema
	require.NoError(t, json.Unmarshal(marshaled, &back))
	assert.True(t, fs.Equal(back))

	err = json.Unmarshal([]byte(`{"label": "no type"}`), &fs)
	assert.ErrorIs(t, err, ErrFieldTypeRequired)

	err = json.Unmarshal([]byte(`{"label": "", "type": "text"}`), &fs)
	assert.ErrorIs(t, err, ErrFieldLabelRequired)
}

func TestParametersSpecificationSatisfiedBy(t *testing.T) {
	spec := NewParametersSpecification(
		map[string]FieldSchema{
			"keyname": MustFieldSchema(FieldSchemaConfig{Label: "Key name", Type: "text"}),
			"keyfile": MustFieldSchema(FieldSchemaConfig{Label: "Key file", Type: "text"}),
			"token":   MustFieldSchema(FieldSchemaConfig{Label: "Token", Type: "password", Sensitive: true}),
		},
		[][]string{{"keyname", "keyfile"}, {"token"}},
	)

	assert.True(t, spec.SatisfiedBy(map[string]string{"token": "t"}))
	assert.True(t, spec.SatisfiedBy(map[string]string{"keyname": "a", "keyfile": "b"}))
	assert.False(t, spec.SatisfiedBy(map[string]string{"keyname": "a"}))
	assert.True(t, EmptyParametersSpecification().SatisfiedBy(nil))
	assert.Equal(t, []string{"keyfile", "keyname", "token"}, spec.FieldNames())
}

func TestParametersSpecificationUnknownRequiredField(t *testing.T) {
	var spec ParametersSpecification
	err := json.Unmarshal([]byte(`{
		"fields": { "a": { "label": "A", "type": "text" } },
		"required": [ [ "a", "b" ] ]
	}`), &spec)
	assert.NotNil(t, err)
}
