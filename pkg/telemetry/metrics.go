// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/bmpp/pkg/errors"
)

// PipelineMetrics records pipeline runs, their diagnostics and failures.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	runs        metric.Int64Counter
	diagnostics metric.Int64Counter
	failures    metric.Int64Counter
	artifacts   metric.Int64Counter
	llmAttempts metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewPipelineMetrics creates the bmpp.* instruments on the global meter
// provider.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("bmpp/pipeline")

	runs, err := meter.Int64Counter(
		"bmpp.pipeline.runs",
		metric.WithDescription("Pipeline runs by command and status"),
	)
	if err != nil {
		return nil, err
	}

	diagnostics, err := meter.Int64Counter(
		"bmpp.validation.diagnostics",
		metric.WithDescription("Diagnostics reported by kind and severity"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"bmpp.pipeline.failures",
		metric.WithDescription("Failed runs by error code"),
	)
	if err != nil {
		return nil, err
	}

	artifacts, err := meter.Int64Counter(
		"bmpp.codegen.artifacts",
		metric.WithDescription("Generated artifacts by target"),
	)
	if err != nil {
		return nil, err
	}

	llmAttempts, err := meter.Int64Counter(
		"bmpp.nlconv.attempts",
		metric.WithDescription("LLM conversion attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"bmpp.pipeline.duration",
		metric.WithDescription("Pipeline run duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		runs:        runs,
		diagnostics: diagnostics,
		failures:    failures,
		artifacts:   artifacts,
		llmAttempts: llmAttempts,
		duration:    duration,
	}, nil
}

// RecordRun counts one finished run and its duration.
func (m *PipelineMetrics) RecordRun(ctx context.Context, command, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrCommand, command),
		attribute.String(AttrStatus, status),
	)
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordDiagnostic counts one diagnostic.
func (m *PipelineMetrics) RecordDiagnostic(ctx context.Context, kind, severity string) {
	if m == nil {
		return
	}
	m.diagnostics.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDiagnosticKind, kind),
		attribute.String(AttrSeverity, severity),
	))
}

// RecordFailure counts a failed run under the error's code.
func (m *PipelineMetrics) RecordFailure(ctx context.Context, command string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCommand, command),
		attribute.String(AttrErrorCode, string(errors.CodeOf(err))),
	))
}

// RecordArtifacts counts generated files for target.
func (m *PipelineMetrics) RecordArtifacts(ctx context.Context, target string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.artifacts.Add(ctx, int64(n), metric.WithAttributes(attribute.String(AttrTarget, target)))
}

// RecordLLMAttempt counts one conversion attempt. accepted reports whether
// the model's answer passed validation.
func (m *PipelineMetrics) RecordLLMAttempt(ctx context.Context, model string, accepted bool) {
	if m == nil {
		return
	}
	m.llmAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrLLMModel, model),
		attribute.Bool(AttrAccepted, accepted),
	))
}
