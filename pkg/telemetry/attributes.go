// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span and metric attribute keys.
const (
	// Run attributes
	AttrRunID   = "bmpp.run.id"
	AttrCommand = "bmpp.run.command"
	AttrSource  = "bmpp.run.source"
	AttrStatus  = "bmpp.run.status"

	// Protocol attributes
	AttrProtocol       = "bmpp.protocol.name"
	AttrProtocolCount  = "bmpp.protocol.count"
	AttrAcceptedCount  = "bmpp.protocol.accepted"
	AttrErrorCount     = "bmpp.validation.errors"
	AttrWarningCount   = "bmpp.validation.warnings"
	AttrDiagnosticKind = "bmpp.diagnostic.kind"
	AttrSeverity       = "bmpp.diagnostic.severity"

	// Codegen attributes
	AttrTarget        = "bmpp.codegen.target"
	AttrPackage       = "bmpp.codegen.package"
	AttrArtifactCount = "bmpp.codegen.artifacts"

	AttrErrorCode = "error.code"

	// LLM attributes (gen_ai conventions where they exist)
	AttrLLMModel = "gen_ai.request.model"
	AttrAttempt  = "bmpp.nlconv.attempt"
	AttrAccepted = "bmpp.nlconv.accepted"
)

// RunAttributes returns the attributes of a pipeline run span.
func RunAttributes(runID, command, source string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrCommand, command),
	}
	if source != "" {
		attrs = append(attrs, attribute.String(AttrSource, source))
	}
	return attrs
}

// ValidationAttributes summarises a validation report.
func ValidationAttributes(protocols, accepted, errs, warnings int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrProtocolCount, protocols),
		attribute.Int(AttrAcceptedCount, accepted),
		attribute.Int(AttrErrorCount, errs),
		attribute.Int(AttrWarningCount, warnings),
	}
}

// CodegenAttributes describes a generation step.
func CodegenAttributes(target, pkg string, artifacts int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTarget, target),
		attribute.Int(AttrArtifactCount, artifacts),
	}
	if pkg != "" {
		attrs = append(attrs, attribute.String(AttrPackage, pkg))
	}
	return attrs
}

// AttemptAttributes describes one LLM conversion attempt.
func AttemptAttributes(model string, attempt int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int(AttrAttempt, attempt)}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	return attrs
}
