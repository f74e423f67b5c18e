// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/protocol"
)

// knowledge tracks, per role, the parameters the role holds.
type knowledge map[string]map[string]bool

func (k knowledge) learn(role string, params ...string) {
	set, ok := k[role]
	if !ok {
		set = make(map[string]bool)
		k[role] = set
	}
	for _, p := range params {
		set[p] = true
	}
}

func (k knowledge) knows(role, param string) bool {
	return k[role][param]
}

type requirement struct {
	role  string
	param string
}

// enactability simulates the protocol. A node runs once all its graph
// predecessors ran and its acting roles know its inputs. Knowledge only
// grows, so running every runnable node before declaring a node blocked
// finds a valid order whenever one exists. A blocked node is reported and
// then treated as run so that its consumers are not reported again.
func (c *checker) enactability() {
	k := make(knowledge)
	for _, r := range c.p.Roles {
		k.learn(r.Name)
		for p := range c.external {
			k.learn(r.Name, p)
		}
	}

	n := len(c.p.Nodes)
	done := make([]bool, n)
	remaining := n
	ready := func(i int) bool {
		for _, pred := range c.g.Predecessors(i) {
			if !done[pred] {
				return false
			}
		}
		return true
	}

	for remaining > 0 {
		progressed := false
		for i := 0; i < n; i++ {
			if done[i] || !ready(i) || len(c.missing(i, k)) > 0 {
				continue
			}
			c.execute(i, k)
			done[i] = true
			remaining--
			progressed = true
		}
		if progressed {
			continue
		}

		blocked := -1
		for i := 0; i < n; i++ {
			if !done[i] && ready(i) {
				blocked = i
				break
			}
		}
		if blocked < 0 {
			// Only reachable on a cyclic graph, which the causality pass rejects.
			return
		}
		for _, req := range c.missing(blocked, k) {
			d := c.nodeDiag(blocked)
			d.Role = req.role
			d.Parameter = req.param
			c.add(diag.CodeEnactabilityViolation, d,
				"role %q must know %q before %q, but no execution order provides it", req.role, req.param, c.g.Label(blocked))
		}
		c.execute(blocked, k)
		done[blocked] = true
		remaining--
	}
}

// missing lists the inputs of node i its acting roles do not know yet.
func (c *checker) missing(i int, k knowledge) []requirement {
	node := c.p.Nodes[i]
	var out []requirement
	for _, in := range node.Inputs() {
		if c.g.IsSelfSatisfied(i, in) {
			continue
		}
		for _, role := range ActingRoles(c.model, node, in) {
			if !k.knows(role, in) {
				out = append(out, requirement{role: role, param: in})
			}
		}
	}
	return out
}

// ActingRoles returns the roles that must hold param when node runs. For
// an interaction it is the sender; for a composition it is the outer roles
// mapped onto the enacted protocol's consumers of param.
func ActingRoles(m *protocol.Model, node protocol.Node, param string) []string {
	if node.Kind == protocol.KindInteraction {
		return []string{node.Interaction.From}
	}
	comp := node.Composition
	inner, ok := m.Protocol(comp.Protocol)
	if !ok {
		return []string{node.Source()}
	}
	var roles []string
	for _, idx := range InterfaceOf(inner).Needs[param] {
		if idx < len(comp.Roles) {
			roles = appendUniqueString(roles, comp.Roles[idx])
		}
	}
	if len(roles) == 0 {
		return []string{node.Source()}
	}
	return roles
}

// execute applies the knowledge effects of node i. The receiver of an
// interaction learns every parameter it carries; every role mapped into a
// composition learns every mapped parameter.
func (c *checker) execute(i int, k knowledge) {
	node := c.p.Nodes[i]
	var params []string
	for _, f := range node.Flows() {
		params = append(params, f.Parameter)
	}
	switch node.Kind {
	case protocol.KindInteraction:
		k.learn(node.Interaction.From, params...)
		k.learn(node.Interaction.To, params...)
	case protocol.KindComposition:
		for _, role := range node.Composition.Roles {
			k.learn(role, params...)
		}
	}
}

func appendUniqueString(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
