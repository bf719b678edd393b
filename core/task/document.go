package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
)

// Document is a JSON object that keeps its keys in insertion order and its values as raw JSON.
// A parsed document keeps the key order of its source.
type Document struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewDocument() *Document {
	return &Document{values: make(map[string]json.RawMessage)}
}

// ParseDocument parses a JSON object.
func ParseDocument(data []byte) (*Document, error) {
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Set marshals v and stores it under key. Replacing an existing key keeps its position.
func (d *Document) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("document key %s: %w", key, err)
	}
	d.put(key, raw)
	return nil
}

// SetRaw stores raw JSON under key. Replacing an existing key keeps its position.
func (d *Document) SetRaw(key string, raw json.RawMessage) error {
	c, err := compact(raw)
	if err != nil {
		return fmt.Errorf("document key %s: %w", key, err)
	}
	d.put(key, c)
	return nil
}

func (d *Document) put(key string, raw json.RawMessage) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = raw
}

func (d *Document) Get(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Remove deletes key and returns the value it held.
func (d *Document) Remove(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	if !ok {
		return nil, false
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
	return v, true
}

func (d *Document) Keys() []string {
	return slices.Clone(d.keys)
}

func (d *Document) Len() int {
	return len(d.keys)
}

// Copy returns a shallow copy: the key set is independent, values are shared.
func (d *Document) Copy() *Document {
	out := &Document{
		keys:   slices.Clone(d.keys),
		values: make(map[string]json.RawMessage, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = v
	}
	return out
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(d.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var ErrNotObject = errors.New("document is not a JSON object")

func (d *Document) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("document is not valid JSON")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return ErrNotObject
	}

	d.keys = nil
	d.values = make(map[string]json.RawMessage)
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		err = d.SetRaw(key.String(), json.RawMessage(value.Raw))
		return err == nil
	})
	return err
}
