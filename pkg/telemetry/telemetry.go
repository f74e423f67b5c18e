// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry wires OpenTelemetry tracing and metrics and configures
// the process-wide slog logger.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"
)

// Exporter names accepted by Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ShutdownFunc flushes pending spans and metrics.
type ShutdownFunc func(context.Context) error

// Config selects where spans and metrics go.
type Config struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool

	// Writer receives stdout exporter output. Nil means os.Stderr, which
	// keeps command output on stdout machine readable.
	Writer io.Writer
}

// exporters is one span exporter and one metric exporter for the same sink.
type exporters struct {
	spans   sdktrace.SpanExporter
	metrics sdkmetric.Exporter
	// sync exports each span as it ends. Used for the stdout sink where a
	// CLI run is short and output order matters more than throughput.
	sync bool
}

// Init installs the stdout exporters.
func Init(serviceName, version string) (ShutdownFunc, error) {
	return InitWithConfig(serviceName, version, Config{Exporter: ExporterStdout})
}

// InitWithConfig installs global tracer and meter providers for cfg. The
// "none" exporter leaves the otel no-op globals in place.
func InitWithConfig(serviceName, version string, cfg Config) (ShutdownFunc, error) {
	if cfg.Exporter == ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporters(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	)

	spanOpt := sdktrace.WithBatcher(exp.spans, sdktrace.WithBatchTimeout(time.Second))
	if exp.sync {
		spanOpt = sdktrace.WithSyncer(exp.spans)
	}
	tp := sdktrace.NewTracerProvider(spanOpt, sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metrics, sdkmetric.WithInterval(time.Minute))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		// Spans first: a flushed span may still record a metric.
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newExporters(ctx context.Context, cfg Config) (exporters, error) {
	switch cfg.Exporter {
	case "", ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		spans, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return exporters{}, fmt.Errorf("stdout span exporter: %w", err)
		}
		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return exporters{}, fmt.Errorf("stdout metric exporter: %w", err)
		}
		return exporters{spans: spans, metrics: metrics, sync: true}, nil

	case ExporterOTLP:
		if cfg.OTLPEndpoint == "" {
			return exporters{}, errors.New("telemetry: otlp exporter needs an endpoint")
		}
		traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		} else {
			// System roots; the endpoint host is the server name.
			creds := credentials.NewClientTLSFromCert(nil, "")
			traceOpts = append(traceOpts, otlptracegrpc.WithTLSCredentials(creds))
			metricOpts = append(metricOpts, otlpmetricgrpc.WithTLSCredentials(creds))
		}
		spans, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return exporters{}, fmt.Errorf("otlp span exporter: %w", err)
		}
		metrics, err := otlpmetricgrpc.New(ctx, metricOpts...)
		if err != nil {
			return exporters{}, errors.Join(fmt.Errorf("otlp metric exporter: %w", err), spans.Shutdown(ctx))
		}
		return exporters{spans: spans, metrics: metrics}, nil
	}
	return exporters{}, fmt.Errorf("telemetry: unknown exporter %q (want %s, %s or %s)", cfg.Exporter, ExporterNone, ExporterStdout, ExporterOTLP)
}
