// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package graph derives the dependency graph of a protocol and the
// "enacts" graph between protocols.
//
// In a dependency graph the nodes are the interactions and compositions of
// one protocol, identified by their declaration index, and an edge runs from
// the producer of a parameter to each of its consumers. Graphs are built
// once and never mutated.
package graph

import (
	"sort"

	"github.com/jllopis/bmpp/pkg/protocol"
)

// Edge links the producer of Parameter to one of its consumers.
type Edge struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	Parameter string `json:"parameter"`
}

// SelfReference records a node that consumes a parameter it also emits.
// No edge is created for it.
type SelfReference struct {
	Node      int    `json:"node"`
	Parameter string `json:"parameter"`
}

// Graph is the producer/consumer graph of one protocol.
type Graph struct {
	protocol *protocol.Protocol
	edges    []Edge
	succ     [][]int
	pred     [][]int
	selfRefs []SelfReference
}

// Build derives the dependency graph of p.
func Build(p *protocol.Protocol) *Graph {
	n := len(p.Nodes)
	g := &Graph{
		protocol: p,
		succ:     make([][]int, n),
		pred:     make([][]int, n),
	}

	producers := make(map[string][]int)
	for i, node := range p.Nodes {
		for _, param := range node.Outputs() {
			producers[param] = appendUnique(producers[param], i)
		}
	}

	for to, node := range p.Nodes {
		for _, param := range node.Inputs() {
			for _, from := range producers[param] {
				if from == to {
					g.selfRefs = append(g.selfRefs, SelfReference{Node: to, Parameter: param})
					continue
				}
				g.edges = append(g.edges, Edge{From: from, To: to, Parameter: param})
				g.succ[from] = appendUnique(g.succ[from], to)
				g.pred[to] = appendUnique(g.pred[to], from)
			}
		}
	}

	sort.SliceStable(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	for i := range g.succ {
		sort.Ints(g.succ[i])
		sort.Ints(g.pred[i])
	}
	return g
}

// Protocol returns the protocol the graph was built from.
func (g *Graph) Protocol() *protocol.Protocol {
	return g.protocol
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.succ)
}

// Node returns the protocol node at index i.
func (g *Graph) Node(i int) protocol.Node {
	return g.protocol.Nodes[i]
}

// Label returns the diagnostic name of node i.
func (g *Graph) Label(i int) string {
	return g.protocol.Nodes[i].Name()
}

// Labels maps node indexes to their names.
func (g *Graph) Labels(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.Label(n)
	}
	return out
}

// Edges returns every edge ordered by source then destination.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Successors returns the distinct consumers of node i's outputs.
func (g *Graph) Successors(i int) []int {
	return g.succ[i]
}

// Predecessors returns the distinct producers of node i's inputs.
func (g *Graph) Predecessors(i int) []int {
	return g.pred[i]
}

// SelfReferences lists nodes that consume their own output.
func (g *Graph) SelfReferences() []SelfReference {
	return append([]SelfReference(nil), g.selfRefs...)
}

// IsSelfSatisfied reports whether node i emits the parameter it consumes.
func (g *Graph) IsSelfSatisfied(i int, param string) bool {
	for _, s := range g.selfRefs {
		if s.Node == i && s.Parameter == param {
			return true
		}
	}
	return false
}

const (
	white = iota
	gray
	black
)

// FindCycle runs a three-colour depth-first search in declaration order and
// returns the first cycle found as a closed path of node indexes (the first
// node is repeated at the end), or nil when the graph is acyclic.
func (g *Graph) FindCycle() []int {
	color := make([]int, g.Len())
	var stack []int
	var cycle []int

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, v := range g.succ[u] {
			switch color[v] {
			case gray:
				for i, s := range stack {
					if s == v {
						cycle = append(append([]int(nil), stack[i:]...), v)
						return true
					}
				}
			case white:
				if visit(v) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
		return false
	}

	for i := 0; i < g.Len(); i++ {
		if color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}

// TopologicalOrder returns the nodes ordered so that every producer comes
// before its consumers, breaking ties by declaration order. ok is false
// when the graph has a cycle.
func (g *Graph) TopologicalOrder() (order []int, ok bool) {
	indeg := make([]int, g.Len())
	for i := range g.pred {
		indeg[i] = len(g.pred[i])
	}
	done := make([]bool, g.Len())
	for len(order) < g.Len() {
		next := -1
		for i := 0; i < g.Len(); i++ {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return order, false
		}
		done[next] = true
		order = append(order, next)
		for _, v := range g.succ[next] {
			indeg[v]--
		}
	}
	return order, true
}

// Ancestors returns every node from which i is reachable, excluding i
// unless it lies on a cycle.
func (g *Graph) Ancestors(i int) map[int]bool {
	seen := make(map[int]bool)
	queue := append([]int(nil), g.pred[i]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, g.pred[n]...)
	}
	return seen
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
