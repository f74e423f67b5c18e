// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/graph"
	"github.com/jllopis/bmpp/pkg/protocol"
)

// checker runs the per-protocol passes. It only reads the model.
type checker struct {
	model    *protocol.Model
	p        *protocol.Protocol
	g        *graph.Graph
	external map[string]bool
	exported map[string]bool
	accepted map[string]bool
	report   diag.Report
}

func newChecker(m *protocol.Model, p *protocol.Protocol, enacted bool, accepted map[string]bool) *checker {
	c := &checker{
		model:    m,
		p:        p,
		g:        graph.Build(p),
		external: make(map[string]bool),
		exported: make(map[string]bool),
		accepted: accepted,
	}
	if enacted {
		for _, in := range InterfaceOf(p).Inputs {
			c.external[in] = true
		}
		for _, outer := range m.Protocols {
			for _, comp := range outer.Compositions() {
				if comp.Protocol != p.Name {
					continue
				}
				for _, f := range comp.Flows {
					if f.Direction == protocol.Out {
						c.exported[f.Parameter] = true
					}
				}
			}
		}
	}
	return c
}

// run executes every pass. Only the causality pass gates another one.
func (c *checker) run() *diag.Report {
	c.safety()
	c.completeness()
	if c.causality() {
		c.enactability()
	}
	c.composition()
	return &c.report
}

func (c *checker) add(code diag.Code, d diag.Diagnostic, format string, args ...any) {
	d.Code = code
	d.Protocol = c.p.Name
	d.Message = fmt.Sprintf(format, args...)
	c.report.Add(d)
}

func (c *checker) nodeDiag(i int) diag.Diagnostic {
	return diag.Diagnostic{Node: c.g.Label(i), Pos: c.p.Nodes[i].Pos()}
}

func (c *checker) paramPos(name string) protocol.Position {
	param, _ := c.p.Parameter(name)
	return param.Pos
}
