// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag holds the diagnostics produced while linking and validating
// protocols, and the report that aggregates them.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jllopis/bmpp/pkg/protocol"
)

// Code identifies the kind of a diagnostic.
type Code string

const (
	CodeLinkError              Code = "LinkError"
	CodeSafetyViolation        Code = "SafetyViolation"
	CodeCompletenessViolation  Code = "CompletenessViolation"
	CodeCausalityViolation     Code = "CausalityViolation"
	CodeEnactabilityViolation  Code = "EnactabilityViolation"
	CodeCompositionError       Code = "CompositionError"
	CodeUnusedParameter        Code = "UnusedParameterWarning"
	CodeUnreachableInteraction Code = "UnreachableInteractionWarning"
	CodeSelfReference          Code = "SelfReferenceWarning"
	CodeInferredChoice         Code = "InferredChoiceWarning"
)

// Severity separates blocking diagnostics from informational ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns the severity implied by the code.
func (c Code) Severity() Severity {
	switch c {
	case CodeUnusedParameter, CodeUnreachableInteraction, CodeSelfReference, CodeInferredChoice:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// LinkKind refines CodeLinkError.
type LinkKind string

const (
	DuplicateProtocol   LinkKind = "DuplicateProtocol"
	DuplicateRole       LinkKind = "DuplicateRole"
	DuplicateParameter  LinkKind = "DuplicateParameter"
	DuplicateAction     LinkKind = "DuplicateAction"
	DuplicateFlow       LinkKind = "DuplicateFlow"
	UndeclaredRole      LinkKind = "UndeclaredRole"
	UndeclaredParameter LinkKind = "UndeclaredParameter"
)

// CompositionKind refines CodeCompositionError.
type CompositionKind string

const (
	UndefinedProtocol CompositionKind = "UndefinedProtocol"
	ArityMismatch     CompositionKind = "ArityMismatch"
	DirectionMismatch CompositionKind = "DirectionMismatch"
	TypeMismatch      CompositionKind = "TypeMismatch"
	UnmappedInput     CompositionKind = "UnmappedInput"
	DependencyFailed  CompositionKind = "DependencyFailed"
	CyclicComposition CompositionKind = "CyclicComposition"
)

// Diagnostic is one finding about a protocol. Only the fields relevant to
// the code are set.
type Diagnostic struct {
	Code      Code              `json:"code" yaml:"code"`
	Kind      string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Protocol  string            `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Message   string            `json:"message" yaml:"message"`
	Parameter string            `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Role      string            `json:"role,omitempty" yaml:"role,omitempty"`
	Node      string            `json:"node,omitempty" yaml:"node,omitempty"`
	Nodes     []string          `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Cycle     []string          `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Pos       protocol.Position `json:"position" yaml:"position"`
}

// Severity returns the severity of the diagnostic.
func (d Diagnostic) Severity() Severity {
	return d.Code.Severity()
}

// IsError reports whether the diagnostic blocks generation.
func (d Diagnostic) IsError() bool {
	return d.Severity() == SeverityError
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Code))
	if d.Kind != "" {
		b.WriteString("::")
		b.WriteString(d.Kind)
	}
	if d.Protocol != "" {
		fmt.Fprintf(&b, " [%s", d.Protocol)
		if !d.Pos.IsZero() {
			fmt.Fprintf(&b, " %s", d.Pos)
		}
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Report aggregates diagnostics for a batch of protocols.
type Report struct {
	Errors   []Diagnostic `json:"errors" yaml:"errors"`
	Warnings []Diagnostic `json:"warnings" yaml:"warnings"`

	// Order is the order in which protocols were validated: referenced
	// protocols come before the protocols that enact them.
	Order []string `json:"order" yaml:"order"`

	// Accepted lists, in Order, the protocols eligible for generation.
	Accepted []string `json:"accepted" yaml:"accepted"`
}

// Add files the diagnostic under errors or warnings.
func (r *Report) Add(d Diagnostic) {
	if d.IsError() {
		r.Errors = append(r.Errors, d)
		return
	}
	r.Warnings = append(r.Warnings, d)
}

// Merge appends every diagnostic of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// HasErrors reports whether any error was recorded.
func (r *Report) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// ErrorsFor returns the errors attached to a protocol.
func (r *Report) ErrorsFor(name string) []Diagnostic {
	return filter(r.Errors, name)
}

// WarningsFor returns the warnings attached to a protocol.
func (r *Report) WarningsFor(name string) []Diagnostic {
	return filter(r.Warnings, name)
}

// IsAccepted reports whether the protocol may be generated.
func (r *Report) IsAccepted(name string) bool {
	for _, n := range r.Accepted {
		if n == name {
			return true
		}
	}
	return false
}

// ByCode returns every diagnostic, errors first, with the given code.
func (r *Report) ByCode(code Code) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Errors {
		if d.Code == code {
			out = append(out, d)
		}
	}
	for _, d := range r.Warnings {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Counts tallies diagnostics per code, sorted by code.
func (r *Report) Counts() []CodeCount {
	tally := make(map[Code]int)
	for _, d := range r.Errors {
		tally[d.Code]++
	}
	for _, d := range r.Warnings {
		tally[d.Code]++
	}
	out := make([]CodeCount, 0, len(tally))
	for c, n := range tally {
		out = append(out, CodeCount{Code: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CodeCount is one entry of Report.Counts.
type CodeCount struct {
	Code  Code `json:"code"`
	Count int  `json:"count"`
}

func filter(ds []Diagnostic, name string) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Protocol == name {
			out = append(out, d)
		}
	}
	return out
}
