// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/protocol"
)

// composition checks every enactment against the enacted protocol's
// interface. An outer in must map to an input of the enacted protocol and an
// outer out to one of its outputs, so a composition node keeps the same
// in/out contract as an interaction.
func (c *checker) composition() {
	for i, node := range c.p.Nodes {
		if node.Kind != protocol.KindComposition {
			continue
		}
		comp := node.Composition
		inner, ok := c.model.Protocol(comp.Protocol)
		if !ok {
			// Reported by the linker.
			continue
		}
		fail := func(kind diag.CompositionKind, param, format string, args ...any) {
			d := c.nodeDiag(i)
			d.Kind = string(kind)
			d.Parameter = param
			c.add(diag.CodeCompositionError, d, format, args...)
		}

		if !c.accepted[inner.Name] {
			fail(diag.DependencyFailed, "", "enacted protocol %q did not pass validation", inner.Name)
		}
		if len(comp.Roles) != len(inner.Roles) {
			fail(diag.ArityMismatch, "", "enactment of %q maps %d roles, the protocol declares %d",
				inner.Name, len(comp.Roles), len(inner.Roles))
		}

		iface := InterfaceOf(inner)
		supplied := make(map[string]bool)
		for _, f := range comp.Flows {
			outerParam, _ := c.p.Parameter(f.Parameter)
			innerParam, _ := inner.Parameter(f.Parameter)
			if outerParam.Type != innerParam.Type {
				fail(diag.TypeMismatch, f.Parameter, "parameter %q is %s here but %s in %q",
					f.Parameter, outerParam.Type, innerParam.Type, inner.Name)
			}
			switch f.Direction {
			case protocol.In:
				supplied[f.Parameter] = true
				if !iface.IsInput(f.Parameter) {
					fail(diag.DirectionMismatch, f.Parameter,
						"in %s maps to a parameter %q does not take as input", f.Parameter, inner.Name)
				}
			case protocol.Out:
				if !iface.IsOutput(f.Parameter) {
					fail(diag.DirectionMismatch, f.Parameter,
						"out %s maps to a parameter %q never produces", f.Parameter, inner.Name)
				}
			}
		}
		for _, in := range iface.Inputs {
			if !supplied[in] {
				fail(diag.UnmappedInput, in, "input %q of %q is not supplied by the enactment", in, inner.Name)
			}
		}
	}
}
