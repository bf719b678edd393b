package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

var definitionSchemaRaw = `
{
	"$defs": {
		"field": {
			"type": "object",
			"properties": {
				"label": { "type": "string", "minLength": 1 },
				"type": { "type": "string", "minLength": 1 },
				"tip": { "type": "string" },
				"options": {
					"type": "array",
					"items": { "type": "string" }
				},
				"default": { "type": "string" },
				"override": { "type": "boolean" },
				"sensitive": { "type": "boolean" }
			},
			"required": [ "label", "type" ]
		},
		"parameters": {
			"type": "object",
			"properties": {
				"fields": {
					"type": "object",
					"additionalProperties": { "$ref": "#/$defs/field" }
				},
				"required": {
					"type": "array",
					"items": {
						"type": "array",
						"items": { "type": "string" }
					}
				}
			},
			"required": [ "fields" ]
		},
		"resource_type": {
			"type": "object",
			"properties": {
				"format": {
					"type": "string",
					"enum": [ "file", "archive" ]
				},
				"permissions": { "type": "string" }
			},
			"required": [ "format" ]
		}
	},
	"title": "Loom Plugin Type",
	"type": "object",
	"properties": {
		"name": { "type": "string", "minLength": 1 },
		"description": { "type": "string" },
		"version": { "type": "string" },
		"parameters": {
			"type": "object",
			"properties": {
				"admin": { "$ref": "#/$defs/parameters" },
				"user": { "$ref": "#/$defs/parameters" }
			},
			"additionalProperties": false
		},
		"resourceTypes": {
			"type": "object",
			"additionalProperties": { "$ref": "#/$defs/resource_type" }
		}
	},
	"required": [ "name", "parameters" ]
}`

// DefinitionSchema returns the JSON schema plugin definition documents are validated against.
func DefinitionSchema() []byte {
	return []byte(definitionSchemaRaw)
}

var definitionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(definitionSchemaRaw), rs); err != nil {
		return nil, fmt.Errorf("invalid plugin definition schema: %s", err)
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

func validateDefinition(data []byte) error {
	rs, err := definitionSchema()
	if err != nil {
		return err
	}
	validateMu.Lock()
	keyErrs, err := rs.ValidateBytes(context.Background(), data)
	validateMu.Unlock()
	if err != nil {
		return fmt.Errorf("error validating plugin definition: %s", err)
	}
	if len(keyErrs) != 0 {
		return fmt.Errorf("invalid plugin definition: %w", keyError(keyErrs))
	}
	return nil
}
