// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Model is a batch of protocols parsed from one source unit, indexed by name.
type Model struct {
	Protocols []*Protocol `json:"protocols" yaml:"protocols"`

	index map[string]*Protocol
}

// NewModel indexes protocols by name. When names repeat the first
// declaration wins; the linker reports the duplicates.
func NewModel(protocols []*Protocol) *Model {
	m := &Model{
		Protocols: protocols,
		index:     make(map[string]*Protocol, len(protocols)),
	}
	for _, p := range protocols {
		if _, ok := m.index[p.Name]; !ok {
			m.index[p.Name] = p
		}
	}
	return m
}

// Protocol returns the protocol with the given name.
func (m *Model) Protocol(name string) (*Protocol, bool) {
	if m == nil {
		return nil, false
	}
	if m.index == nil {
		m.reindex()
	}
	p, ok := m.index[name]
	return p, ok
}

// Select returns the named protocol, or the first one when name is empty.
func (m *Model) Select(name string) (*Protocol, error) {
	if m == nil || len(m.Protocols) == 0 {
		return nil, fmt.Errorf("source declares no protocol")
	}
	if name == "" {
		return m.Protocols[0], nil
	}
	p, ok := m.Protocol(name)
	if !ok {
		return nil, fmt.Errorf("protocol %q not found", name)
	}
	return p, nil
}

// Names returns the protocol names in declaration order.
func (m *Model) Names() []string {
	out := make([]string, 0, len(m.Protocols))
	for _, p := range m.Protocols {
		out = append(out, p.Name)
	}
	return out
}

// Subset returns a model holding only the named protocols, keeping
// declaration order.
func (m *Model) Subset(names []string) *Model {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out []*Protocol
	for _, p := range m.Protocols {
		if keep[p.Name] {
			out = append(out, p)
		}
	}
	return NewModel(out)
}

// EnactedBy returns the names of protocols in the model that enact name.
func (m *Model) EnactedBy(name string) []string {
	var out []string
	for _, p := range m.Protocols {
		for _, target := range p.Enacts() {
			if target == name {
				out = append(out, p.Name)
				break
			}
		}
	}
	return out
}

func (m *Model) reindex() {
	m.index = make(map[string]*Protocol, len(m.Protocols))
	for _, p := range m.Protocols {
		if _, ok := m.index[p.Name]; !ok {
			m.index[p.Name] = p
		}
	}
}

// UnmarshalJSON rebuilds the name index after decoding.
func (m *Model) UnmarshalJSON(data []byte) error {
	var raw struct {
		Protocols []*Protocol `json:"protocols"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = *NewModel(raw.Protocols)
	return nil
}

// MarshalJSON serializes a model to JSON. Use pretty for indented output.
func MarshalJSON(m *Model, pretty bool) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("model is nil")
	}
	if pretty {
		return json.MarshalIndent(m, "", "  ")
	}
	return json.Marshal(m)
}

// MarshalYAML serializes a model to YAML.
func MarshalYAML(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("model is nil")
	}
	return yaml.Marshal(m)
}

// ParseJSON loads a model previously exported with MarshalJSON.
func ParseJSON(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON payload")
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse json model: %w", err)
	}
	return &m, nil
}

// ParseYAML loads a model previously exported with MarshalYAML.
func ParseYAML(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty YAML payload")
	}
	var raw struct {
		Protocols []*Protocol `yaml:"protocols"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml model: %w", err)
	}
	return NewModel(raw.Protocols), nil
}
