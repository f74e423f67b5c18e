// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"strings"

	"github.com/jllopis/bmpp/pkg/diag"
)

// causality reports the first dependency cycle and flags self references.
// It returns false when a cycle was found.
func (c *checker) causality() bool {
	for _, ref := range c.g.SelfReferences() {
		d := c.nodeDiag(ref.Node)
		d.Parameter = ref.Parameter
		c.add(diag.CodeSelfReference, d,
			"%q consumes %q which it also produces; treated as satisfied", c.g.Label(ref.Node), ref.Parameter)
	}

	cycle := c.g.FindCycle()
	if cycle == nil {
		return true
	}
	names := c.g.Labels(cycle)
	d := c.nodeDiag(cycle[0])
	d.Cycle = names
	d.Nodes = names[:len(names)-1]
	c.add(diag.CodeCausalityViolation, d, "dependency cycle: %s", strings.Join(names, " -> "))
	return false
}
