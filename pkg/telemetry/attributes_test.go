// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  []attribute.KeyValue
		want []attribute.KeyValue
	}{
		{
			name: "run with source",
			got:  RunAttributes("run-123", "compile", "purchase.bmpp"),
			want: []attribute.KeyValue{
				attribute.String(AttrRunID, "run-123"),
				attribute.String(AttrCommand, "compile"),
				attribute.String(AttrSource, "purchase.bmpp"),
			},
		},
		{
			name: "run from stdin",
			got:  RunAttributes("run-123", "validate", ""),
			want: []attribute.KeyValue{
				attribute.String(AttrRunID, "run-123"),
				attribute.String(AttrCommand, "validate"),
			},
		},
		{
			name: "validation summary",
			got:  ValidationAttributes(3, 2, 1, 4),
			want: []attribute.KeyValue{
				attribute.Int(AttrProtocolCount, 3),
				attribute.Int(AttrAcceptedCount, 2),
				attribute.Int(AttrErrorCount, 1),
				attribute.Int(AttrWarningCount, 4),
			},
		},
		{
			name: "codegen with package",
			got:  CodegenAttributes("rust", "purchase", 3),
			want: []attribute.KeyValue{
				attribute.String(AttrTarget, "rust"),
				attribute.Int(AttrArtifactCount, 3),
				attribute.String(AttrPackage, "purchase"),
			},
		},
		{
			name: "codegen default package",
			got:  CodegenAttributes("go", "", 2),
			want: []attribute.KeyValue{
				attribute.String(AttrTarget, "go"),
				attribute.Int(AttrArtifactCount, 2),
			},
		},
		{
			name: "attempt",
			got:  AttemptAttributes("llama3.1", 2),
			want: []attribute.KeyValue{
				attribute.Int(AttrAttempt, 2),
				attribute.String(AttrLLMModel, "llama3.1"),
			},
		},
		{
			name: "attempt without model",
			got:  AttemptAttributes("", 1),
			want: []attribute.KeyValue{attribute.Int(AttrAttempt, 1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, tt.got)
		})
	}
}
