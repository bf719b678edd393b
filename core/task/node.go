package task

import (
	"encoding/json"
	"maps"
	"slices"
)

// StringSet is an unordered set of names. It is encoded as a sorted JSON array.
type StringSet map[string]struct{}

func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}

func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s StringSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s StringSet) Equal(o StringSet) bool {
	return maps.Equal(s, o)
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(append([]string{}, s.Sorted()...))
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// NodeProperties are the identity and role facts of one provisioned machine.
type NodeProperties struct {
	Hostname     string    `json:"hostname"`
	IPAddress    string    `json:"ipaddress"`
	NodeNum      int       `json:"nodenum"`
	HardwareType string    `json:"hardwaretype"`
	ImageType    string    `json:"imagetype"`
	Flavor       string    `json:"flavor"`
	Image        string    `json:"image"`
	SSHUser      string    `json:"ssh-user"`
	Automators   StringSet `json:"automators"`
	Services     StringSet `json:"services"`
}

func (n NodeProperties) Equal(o NodeProperties) bool {
	return n.Hostname == o.Hostname &&
		n.IPAddress == o.IPAddress &&
		n.NodeNum == o.NodeNum &&
		n.HardwareType == o.HardwareType &&
		n.ImageType == o.ImageType &&
		n.Flavor == o.Flavor &&
		n.Image == o.Image &&
		n.SSHUser == o.SSHUser &&
		n.Automators.Equal(o.Automators) &&
		n.Services.Equal(o.Services)
}

func (n NodeProperties) clone() NodeProperties {
	n.Automators = maps.Clone(n.Automators)
	n.Services = maps.Clone(n.Services)
	if n.Automators == nil {
		n.Automators = StringSet{}
	}
	if n.Services == nil {
		n.Services = StringSet{}
	}
	return n
}
