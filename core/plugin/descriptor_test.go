package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ec2Definition = `{
	"name": "ec2",
	"description": "Amazon EC2",
	"version": "v1.2.0",
	"parameters": {
		"admin": {
			"fields": {
				"region": { "label": "Region", "type": "select", "options": [ "us-east-1", "us-west-2" ], "default": "us-east-1", "override": true },
				"aws_access_key": { "label": "Access key", "type": "text", "sensitive": true },
				"aws_secret_key": { "label": "Secret key", "type": "password", "sensitive": true }
			},
			"required": [ [ "region", "aws_access_key", "aws_secret_key" ] ]
		},
		"user": {
			"fields": {
				"keyname": { "label": "Key name", "type": "text" }
			}
		}
	},
	"resourceTypes": {
		"ssh_keys": { "format": "file", "permissions": "0400" }
	}
}`

func TestDecodeDescriptor(t *testing.T) {
	d, err := DecodeDescriptor(KindProvider, []byte(ec2Definition))
	require.NoError(t, err)

	assert.Equal(t, "providertypes/ec2", d.ID())
	assert.Equal(t, "Amazon EC2", d.Description())
	assert.Equal(t, "v1.2.0", d.Version())
	assert.Equal(t, []string{"ssh_keys"}, d.ResourceTypeNames())

	rt, ok := d.ResourceType("ssh_keys")
	assert.True(t, ok)
	assert.Equal(t, ResourceFormatFile, rt.Format)
	assert.Equal(t, "0400", rt.Permissions)

	admin, ok := d.Parameters(ParameterTypeAdmin)
	require.True(t, ok)
	region, ok := admin.Field("region")
	require.True(t, ok)
	assert.True(t, region.Override())
	assert.Equal(t, []string{"us-east-1", "us-west-2"}, region.Options())
	assert.Len(t, admin.Required(), 1)

	user, ok := d.Parameters(ParameterTypeUser)
	require.True(t, ok)
	assert.Equal(t, 1, user.Len())

	// round trips through its own JSON form
	marshaled, err := json.Marshal(d)
	require.NoError(t, err)
	back, err := DecodeDescriptor(KindProvider, marshaled)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func TestDecodeDescriptorSchemaViolations(t *testing.T) {
	for name, def := range map[string]string{
		"missing name":        `{"parameters": {}}`,
		"missing parameters":  `{"name": "ec2"}`,
		"unknown role":        `{"name": "ec2", "parameters": {"operator": {"fields": {}}}}`,
		"field without type":  `{"name": "ec2", "parameters": {"user": {"fields": {"a": {"label": "A"}}}}}`,
		"bad resource format": `{"name": "ec2", "parameters": {}, "resourceTypes": {"keys": {"format": "zip"}}}`,
		"not an object":       `[]`,
	} {
		_, err := DecodeDescriptor(KindProvider, []byte(def))
		assert.NotNil(t, err, name)
	}
}

func TestNewDescriptorValidation(t *testing.T) {
	_, err := NewDescriptor(DescriptorConfig{Kind: "widgets", Name: "x"})
	assert.NotNil(t, err)

	_, err = NewDescriptor(DescriptorConfig{Kind: KindAutomator})
	assert.NotNil(t, err)

	_, err = NewDescriptor(DescriptorConfig{Kind: KindAutomator, Name: "chef-solo", Version: "1.0"})
	assert.NotNil(t, err)

	d, err := NewDescriptor(DescriptorConfig{Kind: KindAutomator, Name: "chef-solo"})
	require.NoError(t, err)

	// missing roles are normalised to empty specifications
	admin, ok := d.Parameters(ParameterTypeAdmin)
	assert.True(t, ok)
	assert.Equal(t, 0, admin.Len())
	_, ok = d.Parameters(ParameterTypeUser)
	assert.True(t, ok)
}
