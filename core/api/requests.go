package api

import (
	"encoding/json"
	"maps"
)

// FieldUpdateRequest is a submitted set of field values for a provider or automator, keyed by
// field name. Values are strings no matter the field type.
type FieldUpdateRequest map[string]string

// Fields returns a copy of the submitted values.
func (r FieldUpdateRequest) Fields() map[string]string {
	out := maps.Clone(map[string]string(r))
	if out == nil {
		out = map[string]string{}
	}
	return out
}

type ClusterConfigureRequest struct {
	// Config is merge patched into the existing cluster configuration.
	Config         json.RawMessage    `json:"config,omitempty"`
	ProviderFields FieldUpdateRequest `json:"providerFields,omitempty"`
	Restart        bool               `json:"restart"`
}

type ClusterConfigureResponse struct {
	Config  json.RawMessage `json:"config"`
	Dropped []string        `json:"dropped,omitempty"`
	Restart bool            `json:"restart"`
}
