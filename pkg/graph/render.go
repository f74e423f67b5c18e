// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jllopis/bmpp/pkg/protocol"
)

// labelledEdge merges the parameters carried between the same two nodes.
type labelledEdge struct {
	from, to int
	params   []string
}

func (g *Graph) mergedEdges() []labelledEdge {
	var out []labelledEdge
	for _, e := range g.edges {
		if n := len(out); n > 0 && out[n-1].from == e.From && out[n-1].to == e.To {
			out[n-1].params = append(out[n-1].params, e.Parameter)
			continue
		}
		out = append(out, labelledEdge{from: e.From, to: e.To, params: []string{e.Parameter}})
	}
	return out
}

func nodeCaption(n protocol.Node) string {
	if n.Kind == protocol.KindComposition {
		return "enact " + n.Composition.Protocol
	}
	in := n.Interaction
	return fmt.Sprintf("%s: %s -> %s", in.Action, in.From, in.To)
}

// Mermaid renders the graph as a Mermaid flowchart. Nodes without
// predecessors are highlighted as entry points.
func (g *Graph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i := 0; i < g.Len(); i++ {
		caption := strings.ReplaceAll(nodeCaption(g.Node(i)), `"`, "'")
		if g.Node(i).Kind == protocol.KindComposition {
			sb.WriteString(fmt.Sprintf("    n%d[[\"%s\"]]\n", i, caption))
		} else {
			sb.WriteString(fmt.Sprintf("    n%d[\"%s\"]\n", i, caption))
		}
	}

	for _, e := range g.mergedEdges() {
		sb.WriteString(fmt.Sprintf("    n%d -->|%s| n%d\n", e.from, strings.Join(e.params, ", "), e.to))
	}

	for i := 0; i < g.Len(); i++ {
		if len(g.pred[i]) == 0 {
			sb.WriteString(fmt.Sprintf("    style n%d fill:#90EE90\n", i))
		}
	}
	return sb.String()
}

// Dot renders the graph in Graphviz DOT syntax.
func (g *Graph) Dot() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %q {\n", g.protocol.Name))
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")

	for i := 0; i < g.Len(); i++ {
		attrs := fmt.Sprintf("label=%q", nodeCaption(g.Node(i)))
		if g.Node(i).Kind == protocol.KindComposition {
			attrs += ", shape=box3d"
		}
		if len(g.pred[i]) == 0 {
			attrs += ", style=\"rounded,filled\", fillcolor=\"#90EE90\""
		}
		sb.WriteString(fmt.Sprintf("    n%d [%s];\n", i, attrs))
	}

	for _, e := range g.mergedEdges() {
		sb.WriteString(fmt.Sprintf("    n%d -> n%d [label=%q];\n", e.from, e.to, strings.Join(e.params, ", ")))
	}

	sb.WriteString("}\n")
	return sb.String()
}

type jsonNode struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Caption string `json:"caption"`
	Entry   bool   `json:"entry"`
}

// MarshalJSON renders the nodes, edges and self references of the graph.
func (g *Graph) MarshalJSON() ([]byte, error) {
	nodes := make([]jsonNode, g.Len())
	for i := range nodes {
		n := g.Node(i)
		nodes[i] = jsonNode{
			Index:   i,
			Label:   g.Label(i),
			Kind:    string(n.Kind),
			Caption: nodeCaption(n),
			Entry:   len(g.pred[i]) == 0,
		}
	}
	edges := g.edges
	if edges == nil {
		edges = []Edge{}
	}
	return json.Marshal(struct {
		Protocol       string          `json:"protocol"`
		Nodes          []jsonNode      `json:"nodes"`
		Edges          []Edge          `json:"edges"`
		SelfReferences []SelfReference `json:"self_references,omitempty"`
	}{
		Protocol:       g.protocol.Name,
		Nodes:          nodes,
		Edges:          edges,
		SelfReferences: g.selfRefs,
	})
}

// Formats accepted by Render.
var Formats = []string{"mermaid", "dot", "json"}

// Render renders g as mermaid (the default), dot or json.
func Render(g *Graph, format string) (string, error) {
	switch format {
	case "", "mermaid":
		return g.Mermaid(), nil
	case "dot":
		return g.Dot(), nil
	case "json":
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unknown graph format %q (want mermaid, dot or json)", format)
	}
}
