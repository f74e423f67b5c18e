// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import "github.com/jllopis/bmpp/pkg/protocol"

// Interface describes how a protocol exchanges parameters with a protocol
// that enacts it.
type Interface struct {
	// Inputs are parameters the protocol consumes but never produces; an
	// enacting protocol must supply them.
	Inputs []string
	// Outputs are parameters the protocol produces.
	Outputs []string
	// Needs maps each input to the indexes of the roles that consume it.
	Needs map[string][]int
}

// InterfaceOf computes the interface of p from its flows.
func InterfaceOf(p *protocol.Protocol) Interface {
	iface := Interface{Needs: make(map[string][]int)}
	for _, param := range p.Parameters {
		producers := p.Producers(param.Name)
		consumers := p.Consumers(param.Name)
		if len(producers) > 0 {
			iface.Outputs = append(iface.Outputs, param.Name)
			continue
		}
		if len(consumers) == 0 {
			continue
		}
		iface.Inputs = append(iface.Inputs, param.Name)
		for _, i := range consumers {
			for _, role := range consumingRoles(p.Nodes[i]) {
				if idx := p.RoleIndex(role); idx >= 0 {
					iface.Needs[param.Name] = appendUniqueInt(iface.Needs[param.Name], idx)
				}
			}
		}
	}
	return iface
}

// IsInput reports whether param is supplied from outside.
func (i Interface) IsInput(param string) bool {
	return contains(i.Inputs, param)
}

// IsOutput reports whether param is produced inside the protocol.
func (i Interface) IsOutput(param string) bool {
	return contains(i.Outputs, param)
}

// consumingRoles returns the roles that must hold the inputs of n before
// it runs. Every mapped role of a nested composition is counted.
func consumingRoles(n protocol.Node) []string {
	if n.Kind == protocol.KindComposition {
		return n.Composition.Roles
	}
	return []string{n.Interaction.From}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func appendUniqueInt(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
