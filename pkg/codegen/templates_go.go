// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package codegen

const goProtocolTemplate = `// Scaffold generated by {{.Generator}}. Complete the operation bodies.

// Package {{.Package}} holds role scaffolding for its protocols.
package {{.Package}}
{{if .HasOperations}}
import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by operations that are still stubs.
var ErrNotImplemented = errors.New("not implemented")
{{end}}
{{- range .Protocols}}

// {{.Name}}{{if .Description}}: {{comment .Description}}{{end}}
{{range .Aliases}}
// {{.Name}} carries {{.Parameter}}{{if .Description}}: {{comment .Description}}{{end}}
type {{.Name}} = {{.Type}}
{{end}}
{{- range .Results}}
// {{.Name}} holds the parameters bound by {{.Action}}.
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end}}
{{- range $role := .Roles}}
// {{.TypeName}} plays {{.Name}}{{if .Description}}: {{comment .Description}}{{end}}
type {{.TypeName}} struct{}
{{range .Operations}}
// {{.Name}} {{if .Protocol}}enacts {{.Protocol}} with roles {{join .Roles ", "}}{{else}}sends {{.Action}} to {{.To}}{{end}}.
{{- if .Description}}
// {{comment .Description}}
{{- end}}
func (r *{{$role.TypeName}}) {{.Name}}(ctx context.Context{{range .Inputs}}, {{.Arg}} {{.Type}}{{end}}) ({{.ResultType}}, error) {
	return {{.ResultType}}{}, ErrNotImplemented
}
{{end}}
{{- end}}
{{- end}}
`

const goValidatorTemplate = `// Scaffold generated by {{.Generator}}.

package {{.Package}}

import "fmt"

// Event is one observed step of a protocol run. Action is the action name,
// or the enacted protocol name for an enactment; a repeated label carries a
// "#n" suffix. Bindings holds the parameters the step bound.
type Event struct {
	Action   string
	Bindings map[string]any
}

// Violation is a protocol property broken by a trace.
type Violation struct {
	Property  string
	Event     int
	Action    string
	Parameter string
	Role      string
	Message   string
}

func (v Violation) Error() string {
	return fmt.Sprintf("event %d (%s): %s violation: %s", v.Event, v.Action, v.Property, v.Message)
}

type traceInput struct {
	parameter string
	roles     []string
}

type traceNode struct {
	participants []string
	inputs       []traceInput
	outputs      []string
}

type traceSpec struct {
	roles    []string
	external []string
	nodes    map[string]traceNode
}

func checkTrace(spec traceSpec, events []Event) []Violation {
	bound := make(map[string]bool)
	known := make(map[string]map[string]bool)
	for _, role := range spec.roles {
		known[role] = make(map[string]bool)
		for _, p := range spec.external {
			known[role][p] = true
		}
	}
	for _, p := range spec.external {
		bound[p] = true
	}

	var out []Violation
	for i, ev := range events {
		node, ok := spec.nodes[ev.Action]
		if !ok {
			out = append(out, Violation{Property: "completeness", Event: i, Action: ev.Action, Message: "action is not part of the protocol"})
			continue
		}
		report := func(property, param, role, msg string) {
			out = append(out, Violation{Property: property, Event: i, Action: ev.Action, Parameter: param, Role: role, Message: msg})
		}
		learned := make([]string, 0, len(node.inputs)+len(node.outputs))
		for _, in := range node.inputs {
			learned = append(learned, in.parameter)
			if !bound[in.parameter] {
				report("causality", in.parameter, "", in.parameter+" is used before it is bound")
				continue
			}
			for _, role := range in.roles {
				if !known[role][in.parameter] {
					report("enactability", in.parameter, role, role+" does not know "+in.parameter)
				}
			}
		}
		for _, p := range node.outputs {
			learned = append(learned, p)
			if _, ok := ev.Bindings[p]; !ok {
				report("completeness", p, "", p+" is not bound")
			}
			if bound[p] {
				report("safety", p, "", p+" is bound more than once")
			}
		}
		for _, role := range node.participants {
			for _, p := range learned {
				known[role][p] = true
			}
		}
		for _, p := range node.outputs {
			bound[p] = true
		}
	}
	return out
}
{{range .Protocols}}
var trace{{.TypeName}} = traceSpec{
	roles:    []string{ {{- range $i, $r := .Roles}}{{if $i}}, {{end}}{{quote $r.Name}}{{end -}} },
	external: []string{ {{- join (quoteAll .ExternalInputs) ", " -}} },
	nodes: map[string]traceNode{
{{- range .Nodes}}
		{{quote .Label}}: {
			participants: []string{ {{- join (quoteAll .Participants) ", " -}} },
			inputs: []traceInput{
{{- range .Inputs}}
				{parameter: {{quote .Parameter}}, roles: []string{ {{- join (quoteAll .Roles) ", " -}} }},
{{- end}}
			},
			outputs: []string{ {{- join (quoteAll .Outputs) ", " -}} },
		},
{{- end}}
	},
}

// {{.CheckFunc}} checks an observed trace of {{.Name}} and returns every
// violation in event order.
func {{.CheckFunc}}(events []Event) []Violation {
	return checkTrace(trace{{.TypeName}}, events)
}
{{end}}`

const goProjectTemplate = `module {{.Package}}

go 1.22
`
