package task

import (
	"maps"
)

// Provider is a provider instance resolved for a task: which provider type it uses and the
// field values the provisioner plugin needs.
type Provider struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ProviderType string            `json:"providertype"`
	Provisioner  map[string]string `json:"provisioner"`
}

func (p Provider) Equal(o Provider) bool {
	return p.Name == o.Name &&
		p.Description == o.Description &&
		p.ProviderType == o.ProviderType &&
		maps.Equal(p.Provisioner, o.Provisioner)
}

func (p Provider) clone() Provider {
	p.Provisioner = maps.Clone(p.Provisioner)
	if p.Provisioner == nil {
		p.Provisioner = map[string]string{}
	}
	return p
}

// WithFields returns a copy of the provider with fields set over its provisioner values.
func (p Provider) WithFields(fields map[string]string) Provider {
	out := p.clone()
	maps.Copy(out.Provisioner, fields)
	return out
}
