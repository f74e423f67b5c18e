// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/telemetry"
)

type run struct {
	ctx     context.Context
	span    trace.Span
	id      string
	command string
	source  string
	started time.Time
}

func (p *Pipeline) begin(ctx context.Context, command, source string) *run {
	id := p.newID()
	ctx, span := p.tracer.Start(ctx, "pipeline."+command,
		trace.WithAttributes(telemetry.RunAttributes(id, command, source)...),
	)
	p.logger.DebugContext(ctx, "pipeline run started", "run_id", id, "command", command, "source", source)
	return &run{
		ctx:     ctx,
		span:    span,
		id:      id,
		command: command,
		source:  source,
		started: p.now(),
	}
}

// finish closes the run span and reports the outcome. Audit failures are
// logged and never change the result of the run.
func (p *Pipeline) finish(r *run, res *Result, err error) {
	defer r.span.End()
	finished := p.now()

	status := res.Status()
	if err != nil {
		status = audit.StatusFailed
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, string(errors.CodeOf(err)))
		p.metrics.RecordFailure(r.ctx, r.command, err)
	}
	p.metrics.RecordRun(r.ctx, r.command, string(status), finished.Sub(r.started))

	rec := audit.Run{
		ID:         r.id,
		Command:    r.command,
		Source:     r.source,
		Status:     status,
		StartedAt:  r.started,
		FinishedAt: finished,
	}
	if res.Model != nil {
		rec.Protocols = res.Model.Names()
	}
	if res.Report != nil {
		rec.Errors = len(res.Report.Errors)
		rec.Warnings = len(res.Report.Warnings)
		rec.Diagnostics = append(append(rec.Diagnostics, res.Report.Errors...), res.Report.Warnings...)
	}

	attrs := []any{
		"run_id", r.id,
		"command", r.command,
		"status", status,
		"errors", rec.Errors,
		"warnings", rec.Warnings,
		"duration", finished.Sub(r.started),
	}
	switch {
	case err != nil:
		rec.Error = err.Error()
		p.logger.ErrorContext(r.ctx, "pipeline run failed", append(attrs, "error", err)...)
	case status == audit.StatusInvalid:
		p.logger.WarnContext(r.ctx, "pipeline run rejected protocols", attrs...)
	default:
		p.logger.InfoContext(r.ctx, "pipeline run completed", attrs...)
	}

	if p.store == nil {
		return
	}
	if aerr := p.store.Record(r.ctx, rec); aerr != nil {
		p.logger.WarnContext(r.ctx, "audit record failed", "run_id", r.id, "error", aerr)
	}
}
