package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

var documentSchemaRaw = `
{
	"$defs": {
		"string_set": {
			"type": "array",
			"items": { "type": "string" }
		},
		"string_map": {
			"type": "object",
			"additionalProperties": { "type": "string" }
		},
		"node": {
			"type": "object",
			"properties": {
				"hostname": { "type": "string" },
				"ipaddress": { "type": "string" },
				"nodenum": { "type": "integer" },
				"hardwaretype": { "type": "string" },
				"imagetype": { "type": "string" },
				"flavor": { "type": "string" },
				"image": { "type": "string" },
				"ssh-user": { "type": "string" },
				"automators": { "$ref": "#/$defs/string_set" },
				"services": { "$ref": "#/$defs/string_set" }
			},
			"required": [ "hostname" ]
		},
		"provider": {
			"type": "object",
			"properties": {
				"name": { "type": "string" },
				"description": { "type": "string" },
				"providertype": { "type": "string" },
				"provisioner": { "$ref": "#/$defs/string_map" }
			},
			"required": [ "name" ]
		},
		"service": {
			"type": "object",
			"properties": {
				"name": { "type": "string" },
				"action": { "type": "string" },
				"automator": { "type": "string" },
				"fields": { "$ref": "#/$defs/string_map" }
			},
			"required": [ "name" ]
		}
	},
	"title": "Loom Task Document",
	"type": "object",
	"properties": {
		"cluster": { "type": "object" },
		"service": { "$ref": "#/$defs/service" },
		"hostname": { "type": "string" },
		"ipaddress": { "type": "string" },
		"nodenum": { "type": "integer" },
		"ssh-user": { "type": "string" },
		"hardwaretype": { "type": "string" },
		"imagetype": { "type": "string" },
		"flavor": { "type": "string" },
		"image": { "type": "string" },
		"automators": { "$ref": "#/$defs/string_set" },
		"services": { "$ref": "#/$defs/string_set" },
		"provider": { "$ref": "#/$defs/provider" },
		"nodes": {
			"type": "object",
			"additionalProperties": { "$ref": "#/$defs/node" }
		}
	},
	"required": [
		"cluster",
		"service",
		"hostname",
		"ipaddress",
		"nodenum",
		"ssh-user",
		"hardwaretype",
		"imagetype",
		"flavor",
		"image",
		"automators",
		"services",
		"provider",
		"nodes"
	]
}`

// DocumentSchema returns the JSON schema of a task document. Provisioner results are not
// described, any extra top level key is accepted.
func DocumentSchema() []byte {
	return []byte(documentSchemaRaw)
}

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(documentSchemaRaw), rs); err != nil {
		return nil, fmt.Errorf("invalid task document schema: %s", err)
	}
	return rs, nil
})

func keyError(errs []jsonschema.KeyError) error {
	s := strings.Builder{}
	for _, e := range errs {
		s.WriteString(fmt.Sprintf("%s\n", e.Error()))
	}
	return errors.New(strings.TrimSuffix(s.String(), "\n"))
}

// jsonschema resolves $ref lazily while validating, so validations are serialized.
var validateMu sync.Mutex

// Validate checks data against the task document schema. A violation is reported as a
// *ProtocolError naming the top level key of the first failing property.
func Validate(data []byte) error {
	rs, err := documentSchema()
	if err != nil {
		return err
	}
	validateMu.Lock()
	keyErrs, err := rs.ValidateBytes(context.Background(), data)
	validateMu.Unlock()
	if err != nil {
		return &ProtocolError{Err: fmt.Errorf("%w: %s", ErrWrongShape, err)}
	}
	if len(keyErrs) != 0 {
		return &ProtocolError{
			Key: topLevelKey(keyErrs[0].PropertyPath),
			Err: fmt.Errorf("%w: %w", ErrSchemaViolation, keyError(keyErrs)),
		}
	}
	return nil
}

// topLevelKey returns the first segment of a JSON pointer like "/nodes/n1/hostname".
func topLevelKey(path string) string {
	path = strings.TrimPrefix(path, "/")
	key, _, _ := strings.Cut(path, "/")
	return key
}
