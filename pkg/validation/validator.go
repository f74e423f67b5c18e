// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package validation checks linked protocols for safety, completeness,
// causality, enactability and composition consistency.
//
// Protocols are validated bottom-up along the enacts relation so that an
// enacted protocol is judged before the protocols that use it. Protocols
// that share no composition edge are validated concurrently; each pass is a
// pure function of the immutable model, so results are only joined.
package validation

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/graph"
	"github.com/jllopis/bmpp/pkg/protocol"
)

// Options tunes a validation run.
type Options struct {
	// Concurrency bounds how many protocols of one level are checked at
	// once. Zero or less means no bound.
	Concurrency int
}

// Validate checks every protocol of m. linkDiags are the diagnostics
// returned by the linker; protocols they mark as erroneous are not checked
// further. The error is non-nil only when ctx is cancelled.
func Validate(ctx context.Context, m *protocol.Model, linkDiags []diag.Diagnostic, opts Options) (*diag.Report, error) {
	report := &diag.Report{Errors: []diag.Diagnostic{}, Warnings: []diag.Diagnostic{}}
	broken := make(map[string]bool)
	for _, d := range linkDiags {
		report.Add(d)
		if d.IsError() {
			broken[d.Protocol] = true
		}
	}

	enacts := graph.BuildEnacts(m)
	if cycle := enacts.FindCycle(); cycle != nil {
		report.Add(diag.Diagnostic{
			Code:     diag.CodeCompositionError,
			Kind:     string(diag.CyclicComposition),
			Protocol: cycle[0],
			Cycle:    cycle,
			Message:  "cyclic composition: " + strings.Join(cycle, " -> "),
		})
		report.Order = m.Names()
		report.Accepted = []string{}
		return report, nil
	}

	accepted := make(map[string]bool)
	report.Accepted = []string{}
	for _, level := range enacts.Levels() {
		results := make([]*diag.Report, len(level))

		g, gctx := errgroup.WithContext(ctx)
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}
		for i, name := range level {
			if broken[name] {
				continue
			}
			p, _ := m.Protocol(name)
			enacted := enacts.IsEnacted(name)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = newChecker(m, p, enacted, accepted).run()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, name := range level {
			report.Order = append(report.Order, name)
			if broken[name] {
				continue
			}
			report.Merge(results[i])
			if results[i].HasErrors() {
				continue
			}
			ok := true
			for _, dep := range enacts.Direct(name) {
				if !accepted[dep] {
					ok = false
					break
				}
			}
			if ok {
				accepted[name] = true
				report.Accepted = append(report.Accepted, name)
			}
		}
	}
	return report, nil
}
