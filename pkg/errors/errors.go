// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides the coded error type used at process boundaries:
// the CLI, the MCP server and the pipeline. Core packages return their own
// typed errors; this package classifies them for exit codes, logs and tool
// responses.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Code classifies errors for exit codes and monitoring.
type Code string

const (
	// CodeInvalidInput indicates a malformed request or flag.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeParse indicates protocol text that does not follow the grammar.
	CodeParse Code = "PARSE_ERROR"

	// CodeValidation indicates a protocol that failed semantic validation.
	CodeValidation Code = "VALIDATION_FAILED"

	// CodeGeneration indicates the code generator could not render output.
	CodeGeneration Code = "GENERATION_FAILED"

	// CodeNotFound indicates a missing file, protocol or record.
	CodeNotFound Code = "NOT_FOUND"

	// CodeLLM indicates an LLM provider error.
	CodeLLM Code = "LLM_ERROR"

	// CodeStorage indicates an audit store error.
	CodeStorage Code = "STORAGE_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout Code = "TIMEOUT"

	// CodeInternal indicates an unexpected failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error with context for logs and structured output.
// It can be unwrapped with errors.As.
type Error struct {
	Code        Code
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured output.
func (e *Error) MarshalJSON() ([]byte, error) {
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(struct {
		Code        Code           `json:"code"`
		Message     string         `json:"message"`
		Err         string         `json:"error,omitempty"`
		Context     map[string]any `json:"context,omitempty"`
		Recoverable bool           `json:"recoverable"`
	}{
		Code:        e.Code,
		Message:     e.Message,
		Err:         cause,
		Context:     e.Context,
		Recoverable: e.Recoverable,
	})
}

// New creates an Error with the given code, message and cause.
func New(code Code, msg string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]any),
	}
}

// Newf creates an Error without a cause from a format string.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable marks whether retrying may succeed.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// ExitCode is the process exit status for the error: 2 for validation
// failures, 1 otherwise.
func (e *Error) ExitCode() int {
	if e.Code == CodeValidation {
		return 2
	}
	return 1
}

// As finds the first *Error in err's chain. Errors without one are wrapped
// as CodeInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(CodeInternal, "unexpected error", err)
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}
