// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("unexpected token")
	e := New(CodeParse, "cannot parse purchase.bspl", cause)

	if e.Code != CodeParse {
		t.Errorf("expected CodeParse, got %v", e.Code)
	}
	if e.Message != "cannot parse purchase.bspl" {
		t.Errorf("unexpected message %q", e.Message)
	}
	if !errors.Is(e, cause) {
		t.Errorf("expected errors.Is to reach the cause")
	}
}

func TestWithContext(t *testing.T) {
	e := New(CodeValidation, "protocol rejected", nil)
	e.WithContext("protocol", "Purchase").WithContext("errors", 2)

	if e.Context["protocol"] != "Purchase" {
		t.Errorf("expected context protocol to be Purchase")
	}
	if e.Context["errors"] != 2 {
		t.Errorf("expected context errors to be 2")
	}

	var zero Error
	zero.WithContext("k", "v")
	if zero.Context["k"] != "v" {
		t.Errorf("expected context on a zero Error to be initialised")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with cause",
			err:      New(CodeLLM, "model call failed", errors.New("connection refused")),
			expected: "[LLM_ERROR] model call failed: connection refused",
		},
		{
			name:     "without cause",
			err:      Newf(CodeNotFound, "protocol %q not found", "Purchase"),
			expected: `[NOT_FOUND] protocol "Purchase" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "coded error", err: New(CodeStorage, "write failed", nil), expected: CodeStorage},
		{name: "wrapped coded error", err: fmt.Errorf("run: %w", New(CodeTimeout, "slow", nil)), expected: CodeTimeout},
		{name: "plain error", err: errors.New("boom"), expected: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := As(tt.err)
			if tt.expected == "" {
				if e != nil {
					t.Errorf("expected nil for nil error")
				}
				return
			}
			if e == nil {
				t.Fatalf("expected non-nil Error")
			}
			if e.Code != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, e.Code)
			}
			if CodeOf(tt.err) != tt.expected {
				t.Errorf("CodeOf: expected %v, got %v", tt.expected, CodeOf(tt.err))
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("compile: %w", New(CodeGeneration, "render failed", nil))
	if !HasCode(err, CodeGeneration) {
		t.Errorf("expected GENERATION_FAILED in chain")
	}
	if HasCode(err, CodeParse) {
		t.Errorf("did not expect PARSE_ERROR")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("plain errors carry no code")
	}
}

func TestExitCode(t *testing.T) {
	if got := New(CodeValidation, "rejected", nil).ExitCode(); got != 2 {
		t.Errorf("expected exit code 2, got %d", got)
	}
	if got := New(CodeParse, "bad", nil).ExitCode(); got != 1 {
		t.Errorf("expected exit code 1, got %d", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	e := New(CodeLLM, "model call failed", errors.New("network error"))
	e.WithContext("model", "llama3.1").WithRecoverable(true)

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error marshaling: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}
	if result["code"] != "LLM_ERROR" {
		t.Errorf("expected code LLM_ERROR, got %v", result["code"])
	}
	if result["error"] != "network error" {
		t.Errorf("expected error field, got %v", result["error"])
	}
	if result["recoverable"] != true {
		t.Errorf("expected recoverable true")
	}
}
