// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/protocol"
)

// Link resolves every name reference of a parsed batch and returns the
// model with the problems found. Every diagnostic is an error; a protocol
// with any of them must not be validated or generated.
func Link(protocols []*protocol.Protocol) (*protocol.Model, []diag.Diagnostic) {
	model := protocol.NewModel(protocols)
	l := &linker{model: model}

	seen := make(map[string]bool, len(protocols))
	for _, p := range protocols {
		if seen[p.Name] {
			l.linkError(p, diag.DuplicateProtocol, p.Pos, "", "protocol %q is declared more than once", p.Name)
			continue
		}
		seen[p.Name] = true
		l.linkProtocol(p)
	}
	return model, l.diags
}

type linker struct {
	model *protocol.Model
	diags []diag.Diagnostic
}

func (l *linker) linkError(p *protocol.Protocol, kind diag.LinkKind, pos protocol.Position, node, format string, args ...any) {
	l.diags = append(l.diags, diag.Diagnostic{
		Code:     diag.CodeLinkError,
		Kind:     string(kind),
		Protocol: p.Name,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (l *linker) linkProtocol(p *protocol.Protocol) {
	roles := make(map[string]bool, len(p.Roles))
	for _, r := range p.Roles {
		if roles[r.Name] {
			l.linkError(p, diag.DuplicateRole, r.Pos, "", "role %q is declared more than once", r.Name)
		}
		roles[r.Name] = true
	}
	params := make(map[string]bool, len(p.Parameters))
	for _, param := range p.Parameters {
		if params[param.Name] {
			l.linkError(p, diag.DuplicateParameter, param.Pos, "", "parameter %q is declared more than once", param.Name)
		}
		params[param.Name] = true
	}

	actions := make(map[string]bool)
	for _, n := range p.Nodes {
		switch n.Kind {
		case protocol.KindInteraction:
			in := n.Interaction
			if actions[in.Action] {
				l.linkError(p, diag.DuplicateAction, in.Pos, in.Action, "action %q is declared more than once", in.Action)
			}
			actions[in.Action] = true
			for _, role := range []string{in.From, in.To} {
				if !roles[role] {
					l.linkError(p, diag.UndeclaredRole, in.Pos, in.Action,
						"action %q references undeclared role %q", in.Action, role)
				}
			}
			for _, f := range in.Flows {
				if !params[f.Parameter] {
					l.linkError(p, diag.UndeclaredParameter, f.Pos, in.Action,
						"action %q references undeclared parameter %q", in.Action, f.Parameter)
				}
			}
			l.checkFlows(p, in.Action, in.Flows)
		case protocol.KindComposition:
			l.linkComposition(p, n.Composition, roles, params)
		}
	}
}

// checkFlows rejects a parameter listed twice in the same direction. The
// pair "in p, out p" is a self-reference and is left to the validator.
func (l *linker) checkFlows(p *protocol.Protocol, node string, flows []protocol.ParameterFlow) {
	seen := make(map[protocol.ParameterFlow]bool, len(flows))
	for _, f := range flows {
		key := protocol.ParameterFlow{Parameter: f.Parameter, Direction: f.Direction}
		if seen[key] {
			l.linkError(p, diag.DuplicateFlow, f.Pos, node,
				"%q lists parameter %q as %s more than once", node, f.Parameter, f.Direction)
			continue
		}
		seen[key] = true
	}
}

func (l *linker) linkComposition(p *protocol.Protocol, c *protocol.Composition, roles, params map[string]bool) {
	for _, role := range c.Roles {
		if !roles[role] {
			l.linkError(p, diag.UndeclaredRole, c.Pos, c.Protocol,
				"enactment of %q maps undeclared role %q", c.Protocol, role)
		}
	}

	inner, ok := l.model.Protocol(c.Protocol)
	if !ok {
		l.diags = append(l.diags, diag.Diagnostic{
			Code:     diag.CodeCompositionError,
			Kind:     string(diag.UndefinedProtocol),
			Protocol: p.Name,
			Node:     c.Protocol,
			Message:  fmt.Sprintf("enacted protocol %q is not declared", c.Protocol),
			Pos:      c.Pos,
		})
	}

	l.checkFlows(p, c.Protocol, c.Flows)
	for _, f := range c.Flows {
		if !params[f.Parameter] {
			l.linkError(p, diag.UndeclaredParameter, f.Pos, c.Protocol,
				"enactment of %q references parameter %q not declared in %q", c.Protocol, f.Parameter, p.Name)
		}
		if ok {
			if _, declared := inner.Parameter(f.Parameter); !declared {
				l.linkError(p, diag.UndeclaredParameter, f.Pos, c.Protocol,
					"enactment of %q references parameter %q not declared by the enacted protocol", c.Protocol, f.Parameter)
			}
		}
	}
}
