// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

import (
	"strconv"

	"github.com/jllopis/bmpp/pkg/graph"
	"github.com/jllopis/bmpp/pkg/protocol"
	"github.com/jllopis/bmpp/pkg/validation"
)

// RenderContext is everything a template may reference. Templates see no
// other data.
type RenderContext struct {
	Generator        string
	Target           Target
	Package          string
	IncludeValidator bool
	HasOperations    bool
	Protocols        []ProtocolContext
}

// ProtocolContext describes one protocol.
type ProtocolContext struct {
	Name        string
	TypeName    string
	Key         string
	Description string
	// CheckFunc is the name of the generated trace checker entry point.
	CheckFunc  string
	Aliases    []TypeAlias
	Parameters []ParameterContext
	Roles      []RoleContext
	Results    []ResultContext
	// ExternalInputs are consumed but never produced; an enacting protocol
	// supplies them.
	ExternalInputs []string
	Nodes          []NodeContext
}

// TypeAlias names a parameter's target type.
type TypeAlias struct {
	Name        string
	Type        string
	Parameter   string
	Description string
}

// ParameterContext is a declared parameter.
type ParameterContext struct {
	Name        string
	Alias       string
	Type        string
	Description string
}

// RoleContext groups the operations a role initiates.
type RoleContext struct {
	Name        string
	TypeName    string
	Description string
	Operations  []OperationContext
}

// OperationKind distinguishes sends from enactments.
type OperationKind string

const (
	OperationSend  OperationKind = "send"
	OperationEnact OperationKind = "enact"
)

// OperationContext is one generated operation stub.
type OperationContext struct {
	Kind        OperationKind
	Name        string
	Action      string
	Description string
	// To is the receiving role of a send.
	To string
	// Protocol and Roles describe an enactment.
	Protocol   string
	Roles      []string
	Inputs     []FieldContext
	Outputs    []FieldContext
	ResultType string
}

// ResultContext is the record returned by an operation.
type ResultContext struct {
	Name   string
	Action string
	Fields []FieldContext
}

// FieldContext is a typed parameter slot.
type FieldContext struct {
	Parameter string
	Name      string
	Arg       string
	Type      string
}

// NodeContext is the runtime contract of one node for trace checking.
type NodeContext struct {
	Label        string
	Source       string
	Participants []string
	Inputs       []NodeInput
	Outputs      []string
}

// NodeInput is an input and the roles that must hold it.
type NodeInput struct {
	Parameter string
	Roles     []string
}

func namingFor(target Target) naming {
	switch target {
	case TargetRust:
		return rustNaming
	case TargetPython:
		return pythonNaming
	}
	return goNaming
}

// uniqueNames hands out identifiers, suffixing repeats with a counter.
type uniqueNames map[string]int

func (u uniqueNames) take(name string) string {
	n := u[name]
	u[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		n++
		candidate := name + strconv.Itoa(n)
		if u[candidate] == 0 {
			u[candidate] = 1
			u[name] = n
			return candidate
		}
	}
}

// BuildContext reduces m to the render context of opts.Target.
func BuildContext(m *protocol.Model, opts Options) (*RenderContext, error) {
	nm := namingFor(opts.Target)
	rc := &RenderContext{
		Generator:        Generator,
		Target:           opts.Target,
		Package:          opts.Package,
		IncludeValidator: opts.IncludeValidator,
	}
	types := make(uniqueNames)
	for _, p := range m.Protocols {
		pc, err := buildProtocol(m, p, opts.Target, nm, types)
		if err != nil {
			return nil, err
		}
		for _, r := range pc.Roles {
			if len(r.Operations) > 0 {
				rc.HasOperations = true
			}
		}
		rc.Protocols = append(rc.Protocols, pc)
	}
	return rc, nil
}

func buildProtocol(m *protocol.Model, p *protocol.Protocol, target Target, nm naming, types uniqueNames) (ProtocolContext, error) {
	pc := ProtocolContext{
		Name:        p.Name,
		TypeName:    types.take(nm.typeName(p.Name)),
		Key:         snake(p.Name),
		Description: p.Description,
		CheckFunc:   nm.funcName("check_" + snake(p.Name) + "_trace"),
	}

	aliases := make(map[string]string, len(p.Parameters))
	for _, param := range p.Parameters {
		base, err := MapType(target, param.Type)
		if err != nil {
			return ProtocolContext{}, err
		}
		alias := types.take(nm.typeName(p.Name, param.Name))
		aliases[param.Name] = alias
		pc.Aliases = append(pc.Aliases, TypeAlias{
			Name:        alias,
			Type:        base,
			Parameter:   param.Name,
			Description: param.Description,
		})
		pc.Parameters = append(pc.Parameters, ParameterContext{
			Name:        param.Name,
			Alias:       alias,
			Type:        base,
			Description: param.Description,
		})
	}

	roleIdx := make(map[string]int, len(p.Roles))
	for i, r := range p.Roles {
		roleIdx[r.Name] = i
		pc.Roles = append(pc.Roles, RoleContext{
			Name:        r.Name,
			TypeName:    types.take(nm.typeName(p.Name, r.Name)),
			Description: r.Description,
		})
	}

	// fields gives each parameter of one operation a field and argument
	// name unique within it. Distinct parameters may share a spelling once
	// normalized (order_id and orderId); a repeated parameter is kept once.
	fields := func(params []string) []FieldContext {
		var out []FieldContext
		seen := make(map[string]bool, len(params))
		names, args := make(uniqueNames), make(uniqueNames)
		for _, param := range params {
			if seen[param] {
				continue
			}
			seen[param] = true
			out = append(out, FieldContext{
				Parameter: param,
				Name:      names.take(nm.safe(nm.fieldName(param))),
				Arg:       args.take(nm.safe(nm.argName(param))),
				Type:      aliases[param],
			})
		}
		return out
	}

	g := graph.Build(p)
	methods := make(map[string]uniqueNames, len(p.Roles))
	labels := make(uniqueNames)
	for i, node := range p.Nodes {
		source := node.Source()
		ri, ok := roleIdx[source]
		if !ok {
			continue
		}
		if methods[source] == nil {
			methods[source] = make(uniqueNames)
		}

		op := OperationContext{Action: node.Name()}
		switch node.Kind {
		case protocol.KindInteraction:
			op.Kind = OperationSend
			op.Name = methods[source].take(nm.safe(nm.funcName(node.Interaction.Action)))
			op.Description = node.Interaction.Description
			op.To = node.Interaction.To
		case protocol.KindComposition:
			op.Kind = OperationEnact
			op.Name = methods[source].take(nm.safe(nm.funcName("enact_" + snake(node.Composition.Protocol))))
			op.Protocol = node.Composition.Protocol
			op.Roles = append([]string(nil), node.Composition.Roles...)
			if inner, ok := m.Protocol(node.Composition.Protocol); ok {
				op.Description = inner.Description
			}
		}
		op.Inputs = fields(node.Inputs())
		op.Outputs = fields(node.Outputs())
		op.ResultType = types.take(nm.typeName(p.Name, node.Name(), "result"))
		pc.Results = append(pc.Results, ResultContext{Name: op.ResultType, Action: op.Action, Fields: op.Outputs})
		pc.Roles[ri].Operations = append(pc.Roles[ri].Operations, op)

		nc := NodeContext{
			Label:   labels.take(node.Name()),
			Source:  source,
			Outputs: node.Outputs(),
		}
		if nc.Label != node.Name() {
			nc.Label = node.Name() + "#" + nc.Label[len(node.Name()):]
		}
		switch node.Kind {
		case protocol.KindInteraction:
			nc.Participants = appendUnique(nil, node.Interaction.From, node.Interaction.To)
		case protocol.KindComposition:
			nc.Participants = appendUnique(nil, node.Composition.Roles...)
		}
		for _, in := range node.Inputs() {
			if g.IsSelfSatisfied(i, in) {
				continue
			}
			nc.Inputs = append(nc.Inputs, NodeInput{
				Parameter: in,
				Roles:     validation.ActingRoles(m, node, in),
			})
		}
		pc.Nodes = append(pc.Nodes, nc)
	}

	pc.ExternalInputs = validation.InterfaceOf(p).Inputs
	return pc, nil
}

func appendUnique(s []string, vs ...string) []string {
	for _, v := range vs {
		dup := false
		for _, x := range s {
			if x == v {
				dup = true
				break
			}
		}
		if !dup {
			s = append(s, v)
		}
	}
	return s
}
