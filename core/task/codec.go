package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
)

// Top level keys of a task document. Provisioner results are merged into the same object, so
// workers must never use one of these names for a result: it would be read back into the fixed
// field and disappear from the results.
const (
	KeyCluster      = "cluster"
	KeyService      = "service"
	KeyHostname     = "hostname"
	KeyIPAddress    = "ipaddress"
	KeyNodeNum      = "nodenum"
	KeySSHUser      = "ssh-user"
	KeyHardwareType = "hardwaretype"
	KeyImageType    = "imagetype"
	KeyFlavor       = "flavor"
	KeyImage        = "image"
	KeyAutomators   = "automators"
	KeyServices     = "services"
	KeyProvider     = "provider"
	KeyNodes        = "nodes"
)

// ReservedKeys lists the fixed keys in the order they are removed when decoding.
var ReservedKeys = []string{
	KeyProvider,
	KeyNodes,
	KeyCluster,
	KeyService,
	KeyHostname,
	KeyIPAddress,
	KeyImageType,
	KeyHardwareType,
	KeyFlavor,
	KeyImage,
	KeySSHUser,
	KeyNodeNum,
	KeyServices,
	KeyAutomators,
}

// IsReserved reports whether key is one of the fixed task document keys.
func IsReserved(key string) bool {
	return slices.Contains(ReservedKeys, key)
}

var (
	ErrMissingKey      = errors.New("missing key")
	ErrWrongShape      = errors.New("wrong shape")
	ErrSchemaViolation = errors.New("schema violation")
)

// ProtocolError is returned when a task document can't be turned back into a TaskConfig.
type ProtocolError struct {
	Key string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid task document: %s", e.Err)
	}
	return fmt.Sprintf("invalid task document: key %q: %s", e.Key, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Encode builds the document sent to provisioner workers. The fixed fields come first and every
// provisioner result is then added at the same level, sorted by key. Workers rely on this flat
// layout, so it can't change without changing the workers too.
func Encode(cfg *TaskConfig) (*Document, error) {
	doc := NewDocument()
	node := cfg.node

	fixed := []struct {
		key   string
		value any
	}{
		{KeyCluster, cfg.clusterConfig},
		{KeyService, cfg.serviceAction},
		{KeyHostname, node.Hostname},
		{KeyIPAddress, node.IPAddress},
		{KeyNodeNum, node.NodeNum},
		{KeySSHUser, node.SSHUser},
		{KeyHardwareType, node.HardwareType},
		{KeyImageType, node.ImageType},
		{KeyFlavor, node.Flavor},
		{KeyImage, node.Image},
		{KeyAutomators, node.Automators},
		{KeyServices, node.Services},
		{KeyProvider, cfg.provider},
		{KeyNodes, cfg.nodes},
	}
	for _, f := range fixed {
		if err := doc.Set(f.key, f.value); err != nil {
			return nil, err
		}
	}

	for _, k := range cfg.results.Keys() {
		if err := doc.SetRaw(k, cfg.results[k]); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Decode rebuilds a TaskConfig from a worker's document. The fixed keys are taken out of a copy
// of doc, and whatever remains is the provisioner results. doc itself is not modified.
func Decode(doc *Document) (*TaskConfig, error) {
	d := &decoder{doc: doc.Copy()}

	var provider Provider
	d.object(KeyProvider, &provider)
	var nodes map[string]NodeProperties
	d.object(KeyNodes, &nodes)
	var clusterConfig json.RawMessage
	d.object(KeyCluster, &clusterConfig)
	var serviceAction TaskServiceAction
	d.object(KeyService, &serviceAction)

	var node NodeProperties
	d.string(KeyHostname, &node.Hostname)
	d.string(KeyIPAddress, &node.IPAddress)
	d.string(KeyImageType, &node.ImageType)
	d.string(KeyHardwareType, &node.HardwareType)
	d.string(KeyFlavor, &node.Flavor)
	d.string(KeyImage, &node.Image)
	d.string(KeySSHUser, &node.SSHUser)
	d.take(KeyNodeNum, gjson.Number, &node.NodeNum)
	d.take(KeyServices, gjson.JSON, &node.Services)
	d.take(KeyAutomators, gjson.JSON, &node.Automators)
	if d.err != nil {
		return nil, d.err
	}

	// what's left is the provisioner results
	results := make(ProvisionerResults, d.doc.Len())
	for _, k := range d.doc.Keys() {
		results[k], _ = d.doc.Get(k)
	}
	return NewTaskConfig(node, provider, nodes, serviceAction, clusterConfig, results), nil
}

// Marshal encodes cfg to JSON.
func Marshal(cfg *TaskConfig) ([]byte, error) {
	doc, err := Encode(cfg)
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// Unmarshal decodes a JSON task document and checks it against the task document schema.
// Failures are returned as *ProtocolError.
func Unmarshal(data []byte) (*TaskConfig, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, &ProtocolError{Err: fmt.Errorf("%w: %s", ErrWrongShape, err)}
	}
	cfg, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

type decoder struct {
	doc *Document
	err error
}

// take removes key and decodes it into dest, provided the value has the expected JSON type.
// After the first failure it does nothing.
func (d *decoder) take(key string, want gjson.Type, dest any) {
	if d.err != nil {
		return
	}
	raw, ok := d.doc.Remove(key)
	if !ok {
		d.err = &ProtocolError{Key: key, Err: ErrMissingKey}
		return
	}
	got := gjson.ParseBytes(raw)
	if got.Type != want {
		d.err = &ProtocolError{Key: key, Err: fmt.Errorf("%w: expected %s, got %s", ErrWrongShape, want, got.Type)}
		return
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		d.err = &ProtocolError{Key: key, Err: fmt.Errorf("%w: %s", ErrWrongShape, err)}
	}
}

func (d *decoder) string(key string, dest *string) {
	d.take(key, gjson.String, dest)
}

// object is take for values that must be JSON objects rather than arrays.
func (d *decoder) object(key string, dest any) {
	if d.err != nil {
		return
	}
	if raw, ok := d.doc.Get(key); ok && !gjson.ParseBytes(raw).IsObject() {
		d.doc.Remove(key)
		d.err = &ProtocolError{Key: key, Err: fmt.Errorf("%w: expected an object", ErrWrongShape)}
		return
	}
	d.take(key, gjson.JSON, dest)
}
