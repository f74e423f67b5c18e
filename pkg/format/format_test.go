// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/protocol"
)

const messy = `// leading comment
Outer <Protocol>("outer \"quoted\"") { roles A <Agent>("a"), B <Agent>("b"),
  C <Agent>("c") parameters input <String>("in"),   output <Int>("out")
      A->B : start<Action>("start")[out input]
  /* nested step */ Inner <Enactment>[B, in input, C, out output]
  C -> A: ping <Action>("no payload")[]
}
Inner <Protocol>("inner") {
    roles X <Agent>("x"), Y <Agent>("y")
    parameters input <String>("in"), output <Int>("out")
    X -> Y: work <Action>("work")[in input, out output]
}`

const canonical = `Outer <Protocol>("outer \"quoted\"") {
    roles
        A <Agent>("a"),
        B <Agent>("b"),
        C <Agent>("c")

    parameters
        input <String>("in"),
        output <Int>("out")

    A -> B: start <Action>("start")[out input]
    Inner <Enactment>(B, C, in input, out output)
    C -> A: ping <Action>("no payload")[]
}

Inner <Protocol>("inner") {
    roles
        X <Agent>("x"),
        Y <Agent>("y")

    parameters
        input <String>("in"),
        output <Int>("out")

    X -> Y: work <Action>("work")[in input, out output]
}
`

func TestSourceCanonicalLayout(t *testing.T) {
	out, err := Source(messy)
	require.NoError(t, err)
	assert.Equal(t, canonical, out)
}

func TestSourceIsIdempotent(t *testing.T) {
	once, err := Source(messy)
	require.NoError(t, err)
	twice, err := Source(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSourceReparsesToEqualModel(t *testing.T) {
	before, err := parser.Parse(messy)
	require.NoError(t, err)
	out, err := Source(messy)
	require.NoError(t, err)
	after, err := parser.Parse(out)
	require.NoError(t, err)

	want, err := protocol.MarshalJSON(protocol.NewModel(before), false)
	require.NoError(t, err)
	got, err := protocol.MarshalJSON(protocol.NewModel(after), false)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestSourceParseError(t *testing.T) {
	_, err := Source(`P <Protocol>("p") {`)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestProtocolEscapes(t *testing.T) {
	p := &protocol.Protocol{
		Name:        "P",
		Description: "line\nbreak \\ tab\t",
		Roles:       []protocol.Role{{Name: "A"}},
		Parameters:  []protocol.Parameter{{Name: "x", Type: protocol.TypeBool}},
		Nodes: []protocol.Node{protocol.InteractionNode(&protocol.Interaction{
			From: "A", To: "A", Action: "flip",
			Flows: []protocol.ParameterFlow{{Parameter: "x", Direction: protocol.Out}},
		})},
	}
	out := Protocol(p)
	assert.Contains(t, out, `P <Protocol>("line\nbreak \\ tab\t") {`)

	parsed, err := parser.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, p.Description, parsed[0].Description)
}
