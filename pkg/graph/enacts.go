// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import "github.com/jllopis/bmpp/pkg/protocol"

// Enacts is the graph of composition references between the protocols of a
// model, addressed by protocol name. References to protocols missing from
// the model are ignored; the linker reports them.
type Enacts struct {
	names []string
	index map[string]int
	deps  [][]int
}

// BuildEnacts derives the enacts graph of m.
func BuildEnacts(m *protocol.Model) *Enacts {
	e := &Enacts{index: make(map[string]int)}
	for _, p := range m.Protocols {
		if _, dup := e.index[p.Name]; dup {
			continue
		}
		e.index[p.Name] = len(e.names)
		e.names = append(e.names, p.Name)
	}
	e.deps = make([][]int, len(e.names))
	for _, name := range e.names {
		p, _ := m.Protocol(name)
		from := e.index[name]
		for _, target := range p.Enacts() {
			if to, ok := e.index[target]; ok {
				e.deps[from] = appendUnique(e.deps[from], to)
			}
		}
	}
	return e
}

// Names returns the protocol names in declaration order.
func (e *Enacts) Names() []string {
	return append([]string(nil), e.names...)
}

// Direct returns the protocols enacted directly by name.
func (e *Enacts) Direct(name string) []string {
	i, ok := e.index[name]
	if !ok {
		return nil
	}
	out := make([]string, len(e.deps[i]))
	for k, d := range e.deps[i] {
		out[k] = e.names[d]
	}
	return out
}

// Dependencies returns every protocol reachable from name through
// compositions, in breadth-first order.
func (e *Enacts) Dependencies(name string) []string {
	start, ok := e.index[name]
	if !ok {
		return nil
	}
	seen := map[int]bool{start: true}
	queue := append([]int(nil), e.deps[start]...)
	var out []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, e.names[n])
		queue = append(queue, e.deps[n]...)
	}
	return out
}

// IsEnacted reports whether some protocol of the model enacts name.
func (e *Enacts) IsEnacted(name string) bool {
	i, ok := e.index[name]
	if !ok {
		return false
	}
	for _, deps := range e.deps {
		for _, d := range deps {
			if d == i {
				return true
			}
		}
	}
	return false
}

// FindCycle returns the first cycle of the enacts relation as a closed
// path of protocol names, or nil.
func (e *Enacts) FindCycle() []string {
	color := make([]int, len(e.names))
	var stack []int
	var cycle []string

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, v := range e.deps[u] {
			switch color[v] {
			case gray:
				for i, s := range stack {
					if s == v {
						for _, n := range stack[i:] {
							cycle = append(cycle, e.names[n])
						}
						cycle = append(cycle, e.names[v])
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

	for i := range e.names {
		if color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}

// Levels groups protocols so that every protocol appears after all the
// protocols it enacts. Protocols in the same level share no composition
// edge and may be processed concurrently. Within a level declaration order
// is kept. Levels must only be called on an acyclic graph; protocols on a
// cycle are left out.
func (e *Enacts) Levels() [][]string {
	level := make([]int, len(e.names))
	for i := range level {
		level[i] = -1
	}
	var depth func(i int, visiting map[int]bool) int
	depth = func(i int, visiting map[int]bool) int {
		if level[i] >= 0 {
			return level[i]
		}
		if visiting[i] {
			return -1
		}
		visiting[i] = true
		d := 0
		for _, dep := range e.deps[i] {
			dl := depth(dep, visiting)
			if dl < 0 {
				return -1
			}
			if dl+1 > d {
				d = dl + 1
			}
		}
		delete(visiting, i)
		level[i] = d
		return d
	}

	var out [][]string
	for i := range e.names {
		d := depth(i, map[int]bool{})
		if d < 0 {
			continue
		}
		for len(out) <= d {
			out = append(out, nil)
		}
	}
	for i, name := range e.names {
		if level[i] >= 0 {
			out[level[i]] = append(out[level[i]], name)
		}
	}
	return out
}

// Order flattens Levels.
func (e *Enacts) Order() []string {
	var out []string
	for _, lvl := range e.Levels() {
		out = append(out, lvl...)
	}
	return out
}
