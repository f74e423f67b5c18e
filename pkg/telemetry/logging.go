// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Attribute keys added to records logged inside a span.
const (
	LogTraceID = "trace_id"
	LogSpanID  = "span_id"
)

// ConfigureSlog builds the process logger for level and format ("text" or
// "json") and installs it as the slog default. A nil output means os.Stderr.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}
	lvl := parseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}

	var h slog.Handler = slog.NewTextHandler(output, opts)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(output, opts)
	}
	logger := slog.New(spanHandler{h})
	slog.SetDefault(logger)
	return logger
}

// spanHandler stamps records with the ids of the span in their context, so
// a pipeline log line can be matched to its trace.
type spanHandler struct {
	slog.Handler
}

func (h spanHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		var hasTrace, hasSpan bool
		r.Attrs(func(a slog.Attr) bool {
			hasTrace = hasTrace || a.Key == LogTraceID
			hasSpan = hasSpan || a.Key == LogSpanID
			return !(hasTrace && hasSpan)
		})
		if !hasTrace {
			r.AddAttrs(slog.String(LogTraceID, sc.TraceID().String()))
		}
		if !hasSpan {
			r.AddAttrs(slog.String(LogSpanID, sc.SpanID().String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanHandler{h.Handler.WithAttrs(attrs)}
}

func (h spanHandler) WithGroup(name string) slog.Handler {
	return spanHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel maps a config level name to slog. Unknown names mean info;
// config validation rejects them before they get here.
func parseLogLevel(level string) slog.Level {
	var lvl slog.Level
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
