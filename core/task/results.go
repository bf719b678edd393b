package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/wI2L/jsondiff"
)

// ProvisionerResults is the open bag of values produced by provisioner workers for later tasks
// to consume. Values are arbitrary JSON, kept compacted.
type ProvisionerResults map[string]json.RawMessage

// NewProvisionerResults marshals each value into a results bag.
func NewProvisionerResults(values map[string]any) (ProvisionerResults, error) {
	out := make(ProvisionerResults, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("provisioner result %s: %w", k, err)
		}
		out[k] = raw
	}
	return out, nil
}

func compact(raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r ProvisionerResults) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Get decodes the result stored under key into dest.
func (r ProvisionerResults) Get(key string, dest any) (bool, error) {
	raw, ok := r[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (r ProvisionerResults) Equal(o ProvisionerResults) bool {
	return maps.EqualFunc(r, o, func(a, b json.RawMessage) bool {
		return bytes.Equal(a, b) || jsonpatch.Equal(a, b)
	})
}

func (r ProvisionerResults) clone() ProvisionerResults {
	out := make(ProvisionerResults, len(r))
	for k, v := range r {
		out[k] = slices.Clone(v)
	}
	return out
}

func (r ProvisionerResults) bytes() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(r))
}

// Merge applies update to the results as a JSON merge patch (RFC 7386): keys in update replace
// or recursively merge into existing values, and a null value removes the key.
func (r ProvisionerResults) Merge(update ProvisionerResults) (ProvisionerResults, error) {
	base, err := r.bytes()
	if err != nil {
		return nil, err
	}
	patch, err := update.bytes()
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, fmt.Errorf("error merging provisioner results: %w", err)
	}

	var out ProvisionerResults
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}
	for k, v := range out {
		if out[k], err = compact(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ResultChange is one difference between two result bags, addressed by a JSON pointer.
type ResultChange struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Diff reports how the results in next differ from r.
func (r ProvisionerResults) Diff(next ProvisionerResults) ([]ResultChange, error) {
	var source, target map[string]any
	if err := unmarshalResults(r, &source); err != nil {
		return nil, err
	}
	if err := unmarshalResults(next, &target); err != nil {
		return nil, err
	}
	patch, err := jsondiff.Compare(source, target)
	if err != nil {
		return nil, err
	}
	changes := make([]ResultChange, 0, len(patch))
	for _, op := range patch {
		changes = append(changes, ResultChange{Op: string(op.Type), Path: string(op.Path)})
	}
	return changes, nil
}

func unmarshalResults(r ProvisionerResults, dest *map[string]any) error {
	b, err := r.bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
