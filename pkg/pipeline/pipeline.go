// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs the parse, link, validate and generate stages over a
// protocol source and records each run in traces, metrics, logs and the
// audit trail.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/codegen"
	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/protocol"
	"github.com/jllopis/bmpp/pkg/telemetry"
	"github.com/jllopis/bmpp/pkg/validation"
)

// Commands recorded in the audit trail by Check and Compile.
const (
	CommandValidate = "validate"
	CommandCompile  = "compile"
)

// Source is one unit of protocol text.
type Source struct {
	// Name identifies the source in logs and the audit trail, usually a
	// file path.
	Name string
	Text string

	// Command overrides the command recorded for the run.
	Command string
}

// Result is the outcome of a run. Model is nil when the source did not
// parse.
type Result struct {
	RunID     string
	Model     *protocol.Model
	Report    *diag.Report
	Artifacts []codegen.Artifact
}

// Status classifies the result for the audit trail.
func (r *Result) Status() audit.Status {
	switch {
	case r == nil || r.Report == nil:
		return audit.StatusFailed
	case r.Report.HasErrors():
		return audit.StatusInvalid
	default:
		return audit.StatusOK
	}
}

// Pipeline runs the stages. The zero configuration from New logs to the
// default slog logger and records no audit trail.
type Pipeline struct {
	store       audit.Store
	metrics     *telemetry.PipelineMetrics
	logger      *slog.Logger
	tracer      trace.Tracer
	concurrency int
	now         func() time.Time
	newID       func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAudit records every run in store.
func WithAudit(store audit.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithMetrics records run counters and durations.
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger replaces the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithConcurrency bounds how many protocols are validated at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// New returns a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.Default(),
		tracer: otel.Tracer("bmpp/pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check parses, links and validates src. A syntax error is returned as a
// PARSE_ERROR; semantic problems are only reported in Result.Report.
func (p *Pipeline) Check(ctx context.Context, src Source) (*Result, error) {
	cmd := src.Command
	if cmd == "" {
		cmd = CommandValidate
	}
	run := p.begin(ctx, cmd, src.Name)
	res, err := p.check(run.ctx, run.id, src)
	p.finish(run, res, err)
	return res, err
}

// Compile runs Check and generates code for the accepted protocols.
// Rejected protocols, and the protocols that enact them, produce no
// artifacts; Result.Report tells which.
func (p *Pipeline) Compile(ctx context.Context, src Source, opts codegen.Options) (*Result, error) {
	cmd := src.Command
	if cmd == "" {
		cmd = CommandCompile
	}
	run := p.begin(ctx, cmd, src.Name)
	res, err := p.check(run.ctx, run.id, src)
	if err == nil {
		err = p.generate(run.ctx, res, opts)
	}
	p.finish(run, res, err)
	return res, err
}

func (p *Pipeline) check(ctx context.Context, runID string, src Source) (*Result, error) {
	res := &Result{RunID: runID}

	_, span := p.tracer.Start(ctx, "pipeline.parse")
	model, linkDiags, err := parser.ParseAndLink(src.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		span.End()
		return res, parseError(src.Name, err)
	}
	span.End()
	res.Model = model

	vctx, span := p.tracer.Start(ctx, "pipeline.validate")
	defer span.End()
	report, err := validation.Validate(vctx, model, linkDiags, validation.Options{Concurrency: p.concurrency})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation interrupted")
		return res, errors.New(errors.CodeTimeout, "validation interrupted", err)
	}
	res.Report = report
	span.SetAttributes(telemetry.ValidationAttributes(len(model.Protocols), len(report.Accepted), len(report.Errors), len(report.Warnings))...)

	for _, d := range report.Errors {
		p.metrics.RecordDiagnostic(ctx, string(d.Code), string(diag.SeverityError))
	}
	for _, d := range report.Warnings {
		p.metrics.RecordDiagnostic(ctx, string(d.Code), string(diag.SeverityWarning))
	}
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, res *Result, opts codegen.Options) error {
	if len(res.Report.Accepted) == 0 {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	accepted := res.Model.Subset(res.Report.Accepted)
	if opts.Package == "" {
		opts.Package = codegen.DefaultPackage(accepted)
	}
	artifacts, err := codegen.Generate(accepted, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return errors.New(errors.CodeGeneration, "code generation failed", err).
			WithContext("target", string(opts.Target))
	}
	res.Artifacts = artifacts
	span.SetAttributes(telemetry.CodegenAttributes(string(opts.Target), opts.Package, len(artifacts))...)
	p.metrics.RecordArtifacts(ctx, string(opts.Target), len(artifacts))
	p.logger.InfoContext(ctx, "code generated",
		"run_id", res.RunID,
		"target", opts.Target,
		"package", opts.Package,
		"artifacts", len(artifacts),
	)
	return nil
}

func parseError(name string, err error) *errors.Error {
	e := errors.New(errors.CodeParse, fmt.Sprintf("cannot parse %s", displayName(name)), err)
	var perr *parser.ParseError
	if stderrors.As(err, &perr) {
		e.WithContext("line", perr.Pos.Line).WithContext("column", perr.Pos.Column)
	}
	return e
}

func displayName(name string) string {
	if name == "" {
		return "<input>"
	}
	return name
}
