// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package format prints protocols in canonical layout.
package format

import (
	"strings"

	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/protocol"
)

const indent = "    "

// Source parses text and re-emits every protocol in canonical layout.
// Comments are dropped. Linking is not required; formatting only needs
// well-formed syntax.
func Source(text string) (string, error) {
	protocols, err := parser.Parse(text)
	if err != nil {
		return "", err
	}
	return Protocols(protocols), nil
}

// Protocols renders a sequence of protocols separated by blank lines.
func Protocols(protocols []*protocol.Protocol) string {
	var b strings.Builder
	for i, p := range protocols {
		if i > 0 {
			b.WriteString("\n")
		}
		writeProtocol(&b, p)
	}
	return b.String()
}

// Protocol renders one protocol.
func Protocol(p *protocol.Protocol) string {
	var b strings.Builder
	writeProtocol(&b, p)
	return b.String()
}

func writeProtocol(b *strings.Builder, p *protocol.Protocol) {
	b.WriteString(p.Name + " <Protocol>(" + quote(p.Description) + ") {\n")

	b.WriteString(indent + "roles\n")
	for i, r := range p.Roles {
		b.WriteString(indent + indent + r.Name + " <Agent>(" + quote(r.Description) + ")")
		writeSeparator(b, i, len(p.Roles))
	}
	b.WriteString("\n")

	b.WriteString(indent + "parameters\n")
	for i, param := range p.Parameters {
		b.WriteString(indent + indent + param.Name + " <" + string(param.Type) + ">(" + quote(param.Description) + ")")
		writeSeparator(b, i, len(p.Parameters))
	}
	b.WriteString("\n")

	for _, n := range p.Nodes {
		b.WriteString(indent)
		switch n.Kind {
		case protocol.KindInteraction:
			in := n.Interaction
			b.WriteString(in.From + " -> " + in.To + ": " + in.Action + " <Action>(" + quote(in.Description) + ")")
			b.WriteString("[" + flows(in.Flows) + "]")
		case protocol.KindComposition:
			c := n.Composition
			args := append([]string(nil), c.Roles...)
			if f := flows(c.Flows); f != "" {
				args = append(args, f)
			}
			b.WriteString(c.Protocol + " <Enactment>(" + strings.Join(args, ", ") + ")")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
}

func writeSeparator(b *strings.Builder, i, n int) {
	if i < n-1 {
		b.WriteString(",")
	}
	b.WriteString("\n")
}

func flows(fs []protocol.ParameterFlow) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

// quote produces a string literal using only the escapes the grammar knows.
func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}
