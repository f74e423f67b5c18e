// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"slices"
	"strings"

	"github.com/jllopis/bmpp/pkg/diag"
)

// safety reports parameters bound by more than one node that may run in the
// same enactment. Producers that sit on branches opened by different
// alternatives of an earlier choice are exclusive and do not conflict, but
// the inferred choice is reported as a warning so the author can confirm it.
func (c *checker) safety() {
	for _, param := range c.p.Parameters {
		producers := c.p.Producers(param.Name)
		if len(producers) < 2 {
			continue
		}
		names := c.g.Labels(producers)
		choices, ok := c.choices(producers)
		if !ok {
			c.add(diag.CodeSafetyViolation, diag.Diagnostic{
				Parameter: param.Name,
				Nodes:     names,
				Pos:       param.Pos,
			}, "parameter %q is produced by %d nodes: %s", param.Name, len(producers), strings.Join(names, ", "))
			continue
		}
		c.add(diag.CodeInferredChoice, diag.Diagnostic{
			Parameter: param.Name,
			Nodes:     names,
			Pos:       param.Pos,
		}, "parameter %q is produced by %s; treated as exclusive through the choice %s",
			param.Name, strings.Join(names, " and "), strings.Join(choices, ", "))
	}
}

// choices returns the choice points that separate every pair of producers,
// each rendered as "a | b". ok is false when some pair may run together.
func (c *checker) choices(producers []int) (out []string, ok bool) {
	seen := make(map[string]bool)
	for i := 0; i < len(producers); i++ {
		for j := i + 1; j < len(producers); j++ {
			a, b, found := c.exclusive(producers[i], producers[j])
			if !found {
				return nil, false
			}
			label := c.g.Label(a) + " | " + c.g.Label(b)
			if !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	return out, true
}

// exclusive looks for two different alternatives of a choice, one upstream
// of x and the other upstream of y, neither upstream of the other producer.
// The producers themselves forming the choice is not enough: two
// alternatives binding the same parameter directly still conflict. The
// earliest pair by node order is returned.
func (c *checker) exclusive(x, y int) (int, int, bool) {
	upX := c.g.Ancestors(x)
	upX[x] = true
	upY := c.g.Ancestors(y)
	upY[y] = true

	onlyX := only(upX, upY)
	onlyY := only(upY, upX)
	for _, a := range onlyX {
		for _, b := range onlyY {
			if a == x && b == y {
				continue
			}
			if c.alternatives(a, b) {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}

// only returns the members of set missing from other, sorted.
func only(set, other map[int]bool) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		if !other[n] {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

// alternatives reports whether a and b form a choice: the same role acting
// on exactly the same inputs.
func (c *checker) alternatives(a, b int) bool {
	na, nb := c.p.Nodes[a], c.p.Nodes[b]
	if na.Source() != nb.Source() {
		return false
	}
	return sameSet(na.Inputs(), nb.Inputs())
}

func sameSet(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	other := make(map[string]bool, len(b))
	for _, s := range b {
		if !set[s] {
			return false
		}
		other[s] = true
	}
	return len(set) == len(other)
}
