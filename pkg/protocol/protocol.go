// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the canonical in-memory model of BMPP protocols.
//
// A Protocol is produced by the parser, checked by the linker and the
// validator, and consumed by the code generator. References between
// protocols, roles and parameters are by name; the Model indexes protocols
// so that composition edges can be followed without nested ownership.
// Values must not be mutated once they have been linked.
package protocol

import "fmt"

// Direction is the direction of a parameter flow.
type Direction string

const (
	// In marks a parameter the acting role must already know.
	In Direction = "in"
	// Out marks a parameter the node binds.
	Out Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == In || d == Out
}

// BasicType is one of the four parameter types of the language.
type BasicType string

const (
	TypeString BasicType = "String"
	TypeInt    BasicType = "Int"
	TypeFloat  BasicType = "Float"
	TypeBool   BasicType = "Bool"
)

// BasicTypes lists the supported types in declaration order.
var BasicTypes = []BasicType{TypeString, TypeInt, TypeFloat, TypeBool}

// ParseBasicType maps a type keyword to its BasicType.
func ParseBasicType(s string) (BasicType, bool) {
	for _, t := range BasicTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Position locates a construct in the source text. Line and Column are 1-based.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
	Offset int `json:"offset" yaml:"offset"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsZero reports whether the position is unset.
func (p Position) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// Role is a participant of a protocol.
type Role struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Pos         Position `json:"-" yaml:"-"`
}

// Parameter is a typed piece of information exchanged by a protocol.
type Parameter struct {
	Name        string    `json:"name" yaml:"name"`
	Type        BasicType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
	Pos         Position  `json:"-" yaml:"-"`
}

// ParameterFlow references a parameter with a direction.
type ParameterFlow struct {
	Parameter string    `json:"parameter" yaml:"parameter"`
	Direction Direction `json:"direction" yaml:"direction"`
	Pos       Position  `json:"-" yaml:"-"`
}

func (f ParameterFlow) String() string {
	return string(f.Direction) + " " + f.Parameter
}

// Interaction is a message sent from one role to another.
type Interaction struct {
	From        string          `json:"from" yaml:"from"`
	To          string          `json:"to" yaml:"to"`
	Action      string          `json:"action" yaml:"action"`
	Description string          `json:"description" yaml:"description"`
	Flows       []ParameterFlow `json:"flows" yaml:"flows"`
	Pos         Position        `json:"-" yaml:"-"`
}

// Composition enacts another protocol. Roles are outer role names mapped by
// position onto the referenced protocol's roles; flows map parameters by name.
type Composition struct {
	Protocol string          `json:"protocol" yaml:"protocol"`
	Roles    []string        `json:"roles" yaml:"roles"`
	Flows    []ParameterFlow `json:"flows" yaml:"flows"`
	Pos      Position        `json:"-" yaml:"-"`
}

// NodeKind distinguishes interactions from compositions.
type NodeKind string

const (
	KindInteraction NodeKind = "interaction"
	KindComposition NodeKind = "composition"
)

// Node is one step of a protocol body: exactly one of Interaction or
// Composition is set.
type Node struct {
	Kind        NodeKind     `json:"kind" yaml:"kind"`
	Interaction *Interaction `json:"interaction,omitempty" yaml:"interaction,omitempty"`
	Composition *Composition `json:"composition,omitempty" yaml:"composition,omitempty"`
}

// InteractionNode wraps an interaction.
func InteractionNode(i *Interaction) Node {
	return Node{Kind: KindInteraction, Interaction: i}
}

// CompositionNode wraps a composition.
func CompositionNode(c *Composition) Node {
	return Node{Kind: KindComposition, Composition: c}
}

// Name is the label used in diagnostics: the action name of an interaction
// or the enacted protocol name of a composition.
func (n Node) Name() string {
	switch n.Kind {
	case KindInteraction:
		return n.Interaction.Action
	case KindComposition:
		return n.Composition.Protocol
	}
	return ""
}

// Source is the role that initiates the node. For a composition it is the
// first mapped role.
func (n Node) Source() string {
	switch n.Kind {
	case KindInteraction:
		return n.Interaction.From
	case KindComposition:
		if len(n.Composition.Roles) > 0 {
			return n.Composition.Roles[0]
		}
	}
	return ""
}

// Flows returns the parameter flows of the node.
func (n Node) Flows() []ParameterFlow {
	switch n.Kind {
	case KindInteraction:
		return n.Interaction.Flows
	case KindComposition:
		return n.Composition.Flows
	}
	return nil
}

// Pos returns the declaration position of the node.
func (n Node) Pos() Position {
	switch n.Kind {
	case KindInteraction:
		return n.Interaction.Pos
	case KindComposition:
		return n.Composition.Pos
	}
	return Position{}
}

// Inputs returns the names of parameters consumed as in, in flow order.
func (n Node) Inputs() []string {
	return n.names(In)
}

// Outputs returns the names of parameters emitted as out, in flow order.
func (n Node) Outputs() []string {
	return n.names(Out)
}

// Uses reports whether the node references the parameter in the given direction.
func (n Node) Uses(param string, dir Direction) bool {
	for _, f := range n.Flows() {
		if f.Parameter == param && f.Direction == dir {
			return true
		}
	}
	return false
}

func (n Node) names(dir Direction) []string {
	var out []string
	for _, f := range n.Flows() {
		if f.Direction == dir {
			out = append(out, f.Parameter)
		}
	}
	return out
}

// Protocol is one top-level protocol declaration.
type Protocol struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Roles       []Role      `json:"roles" yaml:"roles"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
	Nodes       []Node      `json:"nodes" yaml:"nodes"`
	Pos         Position    `json:"-" yaml:"-"`
}

// Role looks up a role by name.
func (p *Protocol) Role(name string) (Role, bool) {
	for _, r := range p.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

// RoleIndex returns the declaration index of a role or -1.
func (p *Protocol) RoleIndex(name string) int {
	for i, r := range p.Roles {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Parameter looks up a parameter by name.
func (p *Protocol) Parameter(name string) (Parameter, bool) {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// Interactions returns the interaction nodes in declaration order.
func (p *Protocol) Interactions() []*Interaction {
	var out []*Interaction
	for _, n := range p.Nodes {
		if n.Kind == KindInteraction {
			out = append(out, n.Interaction)
		}
	}
	return out
}

// Compositions returns the composition nodes in declaration order.
func (p *Protocol) Compositions() []*Composition {
	var out []*Composition
	for _, n := range p.Nodes {
		if n.Kind == KindComposition {
			out = append(out, n.Composition)
		}
	}
	return out
}

// Enacts returns the distinct names of protocols this protocol enacts, in
// first-reference order.
func (p *Protocol) Enacts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range p.Compositions() {
		if !seen[c.Protocol] {
			seen[c.Protocol] = true
			out = append(out, c.Protocol)
		}
	}
	return out
}

// Producers returns the indexes of nodes that emit param as out.
func (p *Protocol) Producers(param string) []int {
	return p.nodesUsing(param, Out)
}

// Consumers returns the indexes of nodes that consume param as in.
func (p *Protocol) Consumers(param string) []int {
	return p.nodesUsing(param, In)
}

func (p *Protocol) nodesUsing(param string, dir Direction) []int {
	var out []int
	for i, n := range p.Nodes {
		if n.Uses(param, dir) {
			out = append(out, i)
		}
	}
	return out
}
