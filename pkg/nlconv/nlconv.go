// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package nlconv converts between natural language and protocol text with
// an LLM. Generated protocols are parsed and validated; failures are fed
// back to the model until it produces a valid protocol or the attempt
// budget runs out.
package nlconv

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/format"
	"github.com/jllopis/bmpp/pkg/llm"
	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/protocol"
	"github.com/jllopis/bmpp/pkg/telemetry"
	"github.com/jllopis/bmpp/pkg/validation"
)

// DefaultMaxAttempts bounds ToProtocol when no option overrides it.
const DefaultMaxAttempts = 3

// Converter talks to one model of one provider.
type Converter struct {
	provider       llm.Provider
	model          string
	maxAttempts    int
	temperature    float64
	skipValidation bool
	metrics        *telemetry.PipelineMetrics
	logger         *slog.Logger
	tracer         trace.Tracer
}

// Option configures a Converter.
type Option func(*Converter)

// WithMaxAttempts sets how many answers ToProtocol requests at most.
func WithMaxAttempts(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Converter) { c.temperature = t }
}

// WithSkipValidation makes ToProtocol accept any answer that parses.
func WithSkipValidation(skip bool) Option {
	return func(c *Converter) { c.skipValidation = skip }
}

// WithMetrics counts attempts.
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithLogger replaces the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New returns a Converter for model served by provider.
func New(provider llm.Provider, model string, opts ...Option) *Converter {
	c := &Converter{
		provider:    provider,
		model:       model,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
		tracer:      otel.Tracer("bmpp/nlconv"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attempt records one answer of the model.
type Attempt struct {
	Number   int      `json:"number"`
	Response string   `json:"response"`
	Problems []string `json:"problems,omitempty"`
}

// Conversion is the result of ToProtocol.
type Conversion struct {
	// Text is the protocol in canonical layout.
	Text     string          `json:"text"`
	Model    *protocol.Model `json:"-"`
	Report   *diag.Report    `json:"report,omitempty"`
	Attempts []Attempt       `json:"attempts"`
}

// ToProtocol asks the model to write a protocol for description. On
// failure the returned Conversion still lists every attempt.
func (c *Converter) ToProtocol(ctx context.Context, description string) (*Conversion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.Newf(errors.CodeInvalidInput, "description is empty")
	}
	ctx, span := c.tracer.Start(ctx, "nlconv.to_protocol")
	defer span.End()

	conv := &Conversion{}
	messages := []llm.Message{
		llm.System(toProtocolSystem),
		llm.User(toProtocolPrompt(description)),
	}
	for n := 1; n <= c.maxAttempts; n++ {
		actx, aspan := c.tracer.Start(ctx, "nlconv.attempt", trace.WithAttributes(telemetry.AttemptAttributes(c.model, n)...))
		resp, err := c.provider.Chat(actx, llm.ChatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
		})
		if err != nil {
			aspan.RecordError(err)
			aspan.SetStatus(codes.Error, "chat failed")
			aspan.End()
			span.SetStatus(codes.Error, "chat failed")
			return conv, errors.New(errors.CodeLLM, "model call failed", err).
				WithContext("model", c.model).
				WithContext("attempt", n).
				WithRecoverable(true)
		}

		text := ExtractProtocol(resp.Content)
		model, report, problems := c.check(actx, text)
		conv.Attempts = append(conv.Attempts, Attempt{Number: n, Response: resp.Content, Problems: problems})
		accepted := len(problems) == 0
		c.metrics.RecordLLMAttempt(actx, c.model, accepted)
		aspan.End()

		if accepted {
			conv.Model = model
			conv.Report = report
			conv.Text = format.Protocols(model.Protocols)
			c.logger.InfoContext(ctx, "protocol generated", "model", c.model, "attempts", n, "protocols", model.Names())
			return conv, nil
		}

		c.logger.WarnContext(ctx, "generated protocol rejected", "model", c.model, "attempt", n, "problems", len(problems))
		messages = append(messages, llm.Assistant(resp.Content), llm.User(feedbackPrompt(problems)))
	}

	span.SetStatus(codes.Error, "attempts exhausted")
	return conv, errors.Newf(errors.CodeLLM, "no valid protocol after %d attempts", c.maxAttempts).
		WithContext("model", c.model).
		WithContext("attempts", c.maxAttempts).
		WithRecoverable(true)
}

// check parses, links and validates text and describes every blocking
// problem.
func (c *Converter) check(ctx context.Context, text string) (*protocol.Model, *diag.Report, []string) {
	model, linkDiags, err := parser.ParseAndLink(text)
	if err != nil {
		return nil, nil, []string{err.Error()}
	}
	if len(model.Protocols) == 0 {
		return nil, nil, []string{"the answer contains no protocol"}
	}
	if c.skipValidation {
		return model, nil, nil
	}
	report, err := validation.Validate(ctx, model, linkDiags, validation.Options{})
	if err != nil {
		return nil, nil, []string{err.Error()}
	}
	if report.HasErrors() {
		return model, report, diagnosticProblems(report.Errors)
	}
	return model, report, nil
}

// FromProtocol asks the model to explain the protocols in text. The text
// must parse and validate.
func (c *Converter) FromProtocol(ctx context.Context, text string, style Style) (string, error) {
	ctx, span := c.tracer.Start(ctx, "nlconv.from_protocol")
	defer span.End()

	model, linkDiags, err := parser.ParseAndLink(text)
	if err != nil {
		return "", errors.New(errors.CodeParse, "cannot parse protocol", err)
	}
	report, err := validation.Validate(ctx, model, linkDiags, validation.Options{})
	if err != nil {
		return "", errors.New(errors.CodeTimeout, "validation interrupted", err)
	}
	if report.HasErrors() {
		return "", errors.Newf(errors.CodeValidation, "protocol has %d validation errors", len(report.Errors)).
			WithContext("diagnostics", diagnosticProblems(report.Errors))
	}

	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Model: c.model,
		Messages: []llm.Message{
			llm.System(fromProtocolSystem),
			llm.User(fromProtocolPrompt(format.Protocols(model.Protocols), style)),
		},
		Temperature: c.temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat failed")
		return "", errors.New(errors.CodeLLM, "model call failed", err).
			WithContext("model", c.model).
			WithRecoverable(true)
	}
	return strings.TrimSpace(resp.Content), nil
}

var fence = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_-]*)[ \\t]*\\r?\\n(.*?)```")

// ExtractProtocol returns the protocol text of a model answer: the first
// fenced block labelled bmpp or bspl, else the first unlabelled fenced
// block, else the whole answer.
func ExtractProtocol(answer string) string {
	var fallback string
	found := false
	for _, m := range fence.FindAllStringSubmatch(answer, -1) {
		switch strings.ToLower(m[1]) {
		case "bmpp", "bspl":
			return strings.TrimSpace(m[2])
		case "":
			if !found {
				fallback, found = m[2], true
			}
		}
	}
	if found {
		return strings.TrimSpace(fallback)
	}
	return strings.TrimSpace(answer)
}
