// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"strings"

	"github.com/jllopis/bmpp/pkg/diag"
)

func (c *checker) completeness() {
	for _, param := range c.p.Parameters {
		producers := c.p.Producers(param.Name)
		consumers := c.p.Consumers(param.Name)

		switch {
		case len(consumers) > 0 && len(producers) == 0 && !c.external[param.Name]:
			names := c.g.Labels(consumers)
			c.add(diag.CodeCompletenessViolation, diag.Diagnostic{
				Parameter: param.Name,
				Nodes:     names,
				Pos:       param.Pos,
			}, "parameter %q is consumed by %s but never produced", param.Name, strings.Join(names, ", "))
		case len(consumers) == 0 && len(producers) == 0:
			c.add(diag.CodeUnusedParameter, diag.Diagnostic{
				Parameter: param.Name,
				Pos:       param.Pos,
			}, "parameter %q is declared but never referenced", param.Name)
		case len(consumers) == 0 && !c.exported[param.Name]:
			c.add(diag.CodeUnusedParameter, diag.Diagnostic{
				Parameter: param.Name,
				Nodes:     c.g.Labels(producers),
				Pos:       param.Pos,
			}, "parameter %q is produced but never consumed", param.Name)
		}
	}

	for _, i := range c.unreachable() {
		c.add(diag.CodeUnreachableInteraction, c.nodeDiag(i),
			"%q can never run: its inputs are not obtainable from the initial knowledge", c.g.Label(i))
	}
}

// unreachable computes the nodes whose inputs can never all be bound,
// starting from the parameters supplied by an enacting protocol.
func (c *checker) unreachable() []int {
	known := make(map[string]bool, len(c.external))
	for p := range c.external {
		known[p] = true
	}
	fired := make([]bool, len(c.p.Nodes))
	for changed := true; changed; {
		changed = false
		for i, n := range c.p.Nodes {
			if fired[i] {
				continue
			}
			ready := true
			for _, in := range n.Inputs() {
				if !known[in] && !c.g.IsSelfSatisfied(i, in) {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			fired[i] = true
			changed = true
			for _, out := range n.Outputs() {
				known[out] = true
			}
		}
	}

	var out []int
	for i, ok := range fired {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}
