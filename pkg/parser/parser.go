// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package parser turns BMPP protocol text into the protocol model.
//
// Parsing is a single recursive-descent pass over a token stream and stops
// at the first syntax error. Names are not resolved while parsing; Link
// checks every reference once all top-level protocols are known, which
// lets a composition name a protocol declared later in the same source.
package parser

import (
	"fmt"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/protocol"
)

const (
	tagProtocol  = "Protocol"
	tagAgent     = "Agent"
	tagAction    = "Action"
	tagEnactment = "Enactment"

	kwRoles      = "roles"
	kwParameters = "parameters"
)

// Parse parses a program made of zero or more protocol declarations.
func Parse(src string) ([]*protocol.Protocol, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

// ParseAndLink parses src and links the result. A syntax error is returned
// as error; reference problems are returned as diagnostics.
func ParseAndLink(src string) (*protocol.Model, []diag.Diagnostic, error) {
	protocols, err := Parse(src)
	if err != nil {
		return nil, nil, err
	}
	model, diags := Link(protocols)
	return model, diags, nil
}

type parser struct {
	toks []token
	i    int
	ctx  string
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) consume() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{
		Pos:      t.pos,
		Expected: fmt.Sprintf(format, args...),
		Found:    t.describe(),
		Context:  p.ctx,
	}
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.errorf(t, "%s", what)
	}
	return p.consume(), nil
}

func (p *parser) expectKeyword(word string) error {
	t := p.peek()
	if t.kind != tokIdent || t.text != word {
		return p.errorf(t, "keyword %q", word)
	}
	p.consume()
	return nil
}

// expectTag consumes "<" name ">".
func (p *parser) expectTag(name string) error {
	want := "<" + name + ">"
	if _, err := p.expect(tokLAngle, want); err != nil {
		return err
	}
	t := p.peek()
	if t.kind != tokIdent || t.text != name {
		return p.errorf(t, "%s", want)
	}
	p.consume()
	_, err := p.expect(tokRAngle, want)
	return err
}

// annotation parses a parenthesised description string.
func (p *parser) annotation(owner string) (string, error) {
	if _, err := p.expect(tokLParen, fmt.Sprintf(`"(" opening the description of %s`, owner)); err != nil {
		return "", err
	}
	s, err := p.expect(tokString, fmt.Sprintf("description string of %s", owner))
	if err != nil {
		return "", err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return "", err
	}
	return s.text, nil
}

func (p *parser) isKeyword(t token, word string) bool {
	return t.kind == tokIdent && t.text == word
}

func (p *parser) parseProgram() ([]*protocol.Protocol, error) {
	var out []*protocol.Protocol
	for p.peek().kind != tokEOF {
		proto, err := p.parseProtocol()
		if err != nil {
			return nil, err
		}
		out = append(out, proto)
	}
	return out, nil
}

func (p *parser) parseProtocol() (*protocol.Protocol, error) {
	p.ctx = ""
	name, err := p.expect(tokIdent, "protocol name")
	if err != nil {
		return nil, err
	}
	proto := &protocol.Protocol{Name: name.text, Pos: name.pos}
	p.ctx = "protocol " + name.text

	if err := p.expectTag(tagProtocol); err != nil {
		return nil, err
	}
	if proto.Description, err = p.annotation("protocol " + name.text); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, `"{" opening the protocol body`); err != nil {
		return nil, err
	}

	if err := p.expectKeyword(kwRoles); err != nil {
		return nil, err
	}
	if proto.Roles, err = p.parseRoles(); err != nil {
		return nil, err
	}

	if err := p.expectKeyword(kwParameters); err != nil {
		return nil, err
	}
	if proto.Parameters, err = p.parseParameters(); err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind == tokRBrace && len(proto.Nodes) > 0 {
			p.consume()
			return proto, nil
		}
		if t.kind != tokIdent {
			if len(proto.Nodes) == 0 {
				return nil, p.errorf(t, "interaction or enactment")
			}
			return nil, p.errorf(t, `interaction, enactment or "}"`)
		}
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		proto.Nodes = append(proto.Nodes, node)
	}
}

func (p *parser) parseRoles() ([]protocol.Role, error) {
	var roles []protocol.Role
	for {
		name, err := p.expect(tokIdent, "role name")
		if err != nil {
			return nil, err
		}
		if err := p.expectTag(tagAgent); err != nil {
			return nil, err
		}
		desc, err := p.annotation("role " + name.text)
		if err != nil {
			return nil, err
		}
		roles = append(roles, protocol.Role{Name: name.text, Description: desc, Pos: name.pos})

		if p.peek().kind != tokComma {
			return roles, nil
		}
		p.consume()
		// Tolerate a trailing comma before the parameters section.
		if p.isKeyword(p.peek(), kwParameters) && p.peekAt(1).kind != tokLAngle {
			return roles, nil
		}
	}
}

func (p *parser) parseParameters() ([]protocol.Parameter, error) {
	var params []protocol.Parameter
	for {
		name, err := p.expect(tokIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokLAngle, `"<" opening the parameter type`); err != nil {
			return nil, err
		}
		tt := p.peek()
		typ, ok := protocol.ParseBasicType(tt.text)
		if tt.kind != tokIdent || !ok {
			return nil, p.errorf(tt, "basic type (String, Int, Float or Bool)")
		}
		p.consume()
		if _, err := p.expect(tokRAngle, `">" closing the parameter type`); err != nil {
			return nil, err
		}
		desc, err := p.annotation("parameter " + name.text)
		if err != nil {
			return nil, err
		}
		params = append(params, protocol.Parameter{Name: name.text, Type: typ, Description: desc, Pos: name.pos})

		if p.peek().kind != tokComma {
			return params, nil
		}
		p.consume()
		if p.atNodeStart() || p.peek().kind == tokRBrace {
			return params, nil
		}
	}
}

// atNodeStart reports whether the next tokens open an interaction or an
// enactment rather than another parameter declaration.
func (p *parser) atNodeStart() bool {
	if p.peek().kind != tokIdent {
		return false
	}
	next := p.peekAt(1)
	if next.kind == tokArrow {
		return true
	}
	return next.kind == tokLAngle && p.peekAt(2).kind == tokIdent && p.peekAt(2).text == tagEnactment
}

func (p *parser) parseNode() (protocol.Node, error) {
	head := p.consume()
	switch p.peek().kind {
	case tokArrow:
		in, err := p.parseInteraction(head)
		if err != nil {
			return protocol.Node{}, err
		}
		return protocol.InteractionNode(in), nil
	case tokLAngle:
		c, err := p.parseEnactment(head)
		if err != nil {
			return protocol.Node{}, err
		}
		return protocol.CompositionNode(c), nil
	default:
		return protocol.Node{}, p.errorf(p.peek(), `"->" of an interaction or "<Enactment>"`)
	}
}

func (p *parser) parseInteraction(from token) (*protocol.Interaction, error) {
	p.consume() // ->
	to, err := p.expect(tokIdent, "destination role")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, `":" before the action name`); err != nil {
		return nil, err
	}
	action, err := p.expect(tokIdent, "action name")
	if err != nil {
		return nil, err
	}
	if err := p.expectTag(tagAction); err != nil {
		return nil, err
	}
	desc, err := p.annotation("action " + action.text)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBracket, `"[" opening the parameter flows`); err != nil {
		return nil, err
	}

	var flows []protocol.ParameterFlow
	if p.peek().kind != tokRBracket {
		for {
			f, err := p.parseFlow()
			if err != nil {
				return nil, err
			}
			flows = append(flows, f)
			if p.peek().kind != tokComma {
				break
			}
			p.consume()
		}
	}
	if _, err := p.expect(tokRBracket, `"," or "]" closing the parameter flows`); err != nil {
		return nil, err
	}

	return &protocol.Interaction{
		From:        from.text,
		To:          to.text,
		Action:      action.text,
		Description: desc,
		Flows:       flows,
		Pos:         from.pos,
	}, nil
}

func (p *parser) parseFlow() (protocol.ParameterFlow, error) {
	t := p.peek()
	dir := protocol.Direction(t.text)
	if t.kind != tokIdent || !dir.Valid() {
		return protocol.ParameterFlow{}, p.errorf(t, "parameter direction (in or out)")
	}
	p.consume()
	name, err := p.expect(tokIdent, "parameter name")
	if err != nil {
		return protocol.ParameterFlow{}, err
	}
	return protocol.ParameterFlow{Parameter: name.text, Direction: dir, Pos: t.pos}, nil
}

// parseEnactment accepts both "(...)" and "[...]" argument lists. Role
// identifiers and flows may be interleaved; role order is kept.
func (p *parser) parseEnactment(name token) (*protocol.Composition, error) {
	if err := p.expectTag(tagEnactment); err != nil {
		return nil, err
	}
	open := p.peek()
	var closing tokenKind
	switch open.kind {
	case tokLParen:
		closing = tokRParen
	case tokLBracket:
		closing = tokRBracket
	default:
		return nil, p.errorf(open, `"(" opening the enactment arguments`)
	}
	p.consume()

	c := &protocol.Composition{Protocol: name.text, Pos: name.pos}
	for {
		t := p.peek()
		if t.kind != tokIdent {
			return nil, p.errorf(t, "role identifier or parameter flow")
		}
		if protocol.Direction(t.text).Valid() && p.peekAt(1).kind == tokIdent {
			f, err := p.parseFlow()
			if err != nil {
				return nil, err
			}
			c.Flows = append(c.Flows, f)
		} else {
			p.consume()
			c.Roles = append(c.Roles, t.text)
		}
		if p.peek().kind != tokComma {
			break
		}
		p.consume()
	}
	if len(c.Roles) == 0 {
		return nil, p.errorf(p.peek(), "at least one role identifier in enactment of %s", name.text)
	}
	if _, err := p.expect(closing, fmt.Sprintf(`"," or %s closing the enactment arguments`, closing)); err != nil {
		return nil, err
	}
	return c, nil
}
