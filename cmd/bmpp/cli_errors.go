// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/parser"
)

// CLIError wraps a coded error with a hint for the user.
type CLIError struct {
	Coded *errors.Error
	Hint  string
}

// NewCLIError creates a new CLI error.
func NewCLIError(e *errors.Error, hint string) *CLIError {
	return &CLIError{Coded: e, Hint: hint}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.Coded == nil {
		return "unknown error"
	}
	msg := e.Coded.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// Unwrap exposes the coded error.
func (e *CLIError) Unwrap() error {
	return e.Coded
}

// ExitCode is 2 for validation failures and 1 otherwise.
func (e *CLIError) ExitCode() int {
	if e.Coded == nil {
		return 1
	}
	return e.Coded.ExitCode()
}

// Print writes the error to w, as a JSON object when asJSON is set.
func (e *CLIError) Print(w io.Writer, asJSON bool) {
	if asJSON {
		payload := struct {
			Error *errors.Error `json:"error"`
			Hint  string        `json:"hint,omitempty"`
		}{e.Coded, e.Hint}
		_ = json.NewEncoder(w).Encode(payload)
		return
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", e.Coded.Code, e.Coded.Message)
	if e.Coded.Err != nil {
		fmt.Fprintf(w, "  %v\n", e.Coded.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// asCLIError classifies err. Errors without a code come from argument
// parsing in the cli package.
func asCLIError(err error) *CLIError {
	var cerr *CLIError
	if stderrors.As(err, &cerr) {
		return cerr
	}
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return NewCLIError(coded, hintFor(coded))
	}
	return NewCLIError(errors.New(errors.CodeInvalidInput, err.Error(), nil), "run 'bmpp --help' for usage information")
}

func hintFor(e *errors.Error) string {
	switch e.Code {
	case errors.CodeParse:
		return "check the protocol syntax near the reported position"
	case errors.CodeValidation:
		return "fix the reported errors; warnings never block generation"
	case errors.CodeGeneration:
		return "check --target and any template overrides in --template-dir"
	case errors.CodeLLM:
		return "check that the model server is reachable at llm.base_url and the model is pulled"
	case errors.CodeStorage:
		return "check audit.path and its permissions"
	case errors.CodeNotFound:
		return "check the path or name"
	}
	return ""
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	e := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath)

	hint := "check BMPP_* environment variables and --set overrides"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(e, hint)
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	e := errors.Newf(errors.CodeInvalidInput, "invalid argument %s: %s", arg, reason).
		WithContext("argument", arg)
	return NewCLIError(e, "run 'bmpp --help' for usage information")
}

// newParseError reports a syntax error in the named source.
func newParseError(name string, err error) *CLIError {
	e := errors.New(errors.CodeParse, "cannot parse "+name, err)
	var perr *parser.ParseError
	if stderrors.As(err, &perr) {
		e.WithContext("line", perr.Pos.Line).WithContext("column", perr.Pos.Column)
	}
	return NewCLIError(e, hintFor(e))
}

// newValidationError reports a run whose report holds errors.
func newValidationError(errs, rejected int) *CLIError {
	e := errors.Newf(errors.CodeValidation, "%d error(s), %d protocol(s) rejected", errs, rejected)
	return NewCLIError(e, hintFor(e))
}
