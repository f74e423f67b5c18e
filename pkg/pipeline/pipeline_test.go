// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/codegen"
	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/errors"
)

const pingSrc = `Ping <Protocol>("ping") {
    roles A <Agent>("a"), B <Agent>("b")
    parameters id <String>("id")
    A -> B: ping <Action>("ping")[out id]
}`

const brokenSrc = `Broken <Protocol>("consumes what nobody makes") {
    roles A <Agent>("a"), B <Agent>("b")
    parameters x <String>("x"), y <String>("y")
    A -> B: send <Action>("send")[in x, out y]
}`

type fixture struct {
	pipeline *Pipeline
	store    *audit.MemoryStore
	spans    *tracetest.SpanRecorder
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := audit.NewMemoryStore()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := New(WithAudit(store), WithLogger(logger), WithConcurrency(2))
	p.tracer = tp.Tracer("test")
	ids := 0
	p.newID = func() string {
		ids++
		return []string{"run-1", "run-2", "run-3"}[ids-1]
	}
	return &fixture{pipeline: p, store: store, spans: spans, logs: &logs}
}

func (f *fixture) runs(t *testing.T) []audit.Run {
	t.Helper()
	runs, err := f.store.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	return runs
}

func (f *fixture) spanNames() []string {
	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestCheckAcceptsValidSource(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Check(context.Background(), Source{Name: "ping.bspl", Text: pingSrc})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"Ping"}, res.Report.Accepted)
	assert.Equal(t, audit.StatusOK, res.Status())
	assert.Empty(t, res.Artifacts)

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, CommandValidate, runs[0].Command)
	assert.Equal(t, "ping.bspl", runs[0].Source)
	assert.Equal(t, []string{"Ping"}, runs[0].Protocols)
	assert.Equal(t, 1, runs[0].Warnings)

	assert.ElementsMatch(t, []string{"pipeline.parse", "pipeline.validate", "pipeline.validate"}, f.spanNames())
	assert.Contains(t, f.logs.String(), "pipeline run completed")
}

func TestCheckReportsInvalidProtocols(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Check(context.Background(), Source{Text: brokenSrc, Command: "mcp.validate"})
	require.NoError(t, err)
	assert.Equal(t, audit.StatusInvalid, res.Status())
	assert.NotEmpty(t, res.Report.ByCode(diag.CodeCompletenessViolation))

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, "mcp.validate", runs[0].Command)
	assert.Equal(t, audit.StatusInvalid, runs[0].Status)
	assert.Positive(t, runs[0].Errors)
	assert.NotEmpty(t, runs[0].Diagnostics)
	assert.Contains(t, f.logs.String(), "pipeline run rejected protocols")
}

func TestCheckParseError(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Check(context.Background(), Source{Name: "bad.bspl", Text: `Ping <Protocol>("p") {`})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeParse))
	assert.Contains(t, err.Error(), "cannot parse bad.bspl")
	assert.Nil(t, res.Model)
	assert.Equal(t, audit.StatusFailed, res.Status())

	e := errors.As(err)
	assert.Equal(t, 1, e.Context["line"])

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, audit.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "parse error")
	assert.Empty(t, runs[0].Protocols)
}

func TestCompileGeneratesAcceptedProtocolsOnly(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Compile(context.Background(),
		Source{Name: "mixed.bspl", Text: pingSrc + "\n" + brokenSrc},
		codegen.Options{Target: codegen.TargetGo},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ping"}, res.Report.Accepted)
	assert.Equal(t, audit.StatusInvalid, res.Status())

	paths := make(map[string]string)
	for _, a := range res.Artifacts {
		paths[a.Path] = a.Content
	}
	require.Contains(t, paths, "protocol.go")
	assert.Contains(t, paths["protocol.go"], "package ping")
	assert.NotContains(t, paths["protocol.go"], "Broken")
	assert.Contains(t, f.spanNames(), "pipeline.generate")

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, CommandCompile, runs[0].Command)
	assert.Equal(t, []string{"Ping", "Broken"}, runs[0].Protocols)
}

func TestCompileSkipsGenerationWhenNothingIsAccepted(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Compile(context.Background(), Source{Text: brokenSrc}, codegen.Options{Target: codegen.TargetRust})
	require.NoError(t, err)
	assert.Empty(t, res.Artifacts)
	assert.NotContains(t, f.spanNames(), "pipeline.generate")
}

func TestCompileGenerationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Compile(context.Background(), Source{Text: pingSrc}, codegen.Options{Target: "cobol"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeGeneration))

	var gerr *codegen.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, codegen.UnsupportedTarget, gerr.Kind)

	runs := f.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, audit.StatusFailed, runs[0].Status)
}

type failingStore struct{ *audit.MemoryStore }

func (*failingStore) Record(context.Context, audit.Run) error {
	return errors.Newf(errors.CodeStorage, "disk full")
}

func TestAuditFailureDoesNotFailRun(t *testing.T) {
	var logs bytes.Buffer
	p := New(WithAudit(&failingStore{audit.NewMemoryStore()}), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	res, err := p.Check(context.Background(), Source{Text: pingSrc})
	require.NoError(t, err)
	assert.Equal(t, audit.StatusOK, res.Status())
	assert.Contains(t, logs.String(), "audit record failed")
}

func TestResultStatusNil(t *testing.T) {
	var r *Result
	assert.Equal(t, audit.StatusFailed, r.Status())
}
