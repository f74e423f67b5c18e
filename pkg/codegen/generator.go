// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package codegen turns validated protocols into a typed agent scaffold.
//
// Generation is a pure transform: the model is reduced to a fixed
// RenderContext, every file of the target is rendered from that context by
// a Renderer, and the result is returned as (path, content) pairs. Nothing
// is written to disk and identical input always yields identical output.
package codegen

import (
	"fmt"
	"go/format"
	"io/fs"
	"regexp"
	"strings"

	"github.com/jllopis/bmpp/pkg/protocol"
)

// Target identifies an output language.
type Target string

const (
	TargetGo     Target = "go"
	TargetRust   Target = "rust"
	TargetPython Target = "python"
)

// Targets lists the supported targets.
var Targets = []Target{TargetGo, TargetRust, TargetPython}

// ParseTarget accepts a target name and a few common aliases.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go", "golang":
		return TargetGo, nil
	case "rust", "rs":
		return TargetRust, nil
	case "python", "py":
		return TargetPython, nil
	}
	return "", &GenerationError{Kind: UnsupportedTarget, Target: Target(s), Detail: s}
}

// Generator identifies the tool in generated file headers.
const Generator = "bmpp"

// Options configures a generation run.
type Options struct {
	Target  Target
	Package string
	// IncludeValidator adds the runtime trace validator artifact.
	IncludeValidator bool
	// Templates optionally overrides built-in templates. A file named
	// "<target>/<template>.tmpl" replaces the template of that name.
	Templates fs.FS
	// Renderer performs text substitution. Defaults to TemplateRenderer.
	Renderer Renderer
}

// Artifact is one generated file.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	UnsupportedType   ErrorKind = "UnsupportedType"
	UnsupportedTarget ErrorKind = "UnsupportedTarget"
	EmptyModel        ErrorKind = "EmptyModel"
	InvalidPackage    ErrorKind = "InvalidPackage"
	RenderFailed      ErrorKind = "RenderFailed"
)

// GenerationError reports why no artifacts could be produced.
type GenerationError struct {
	Kind   ErrorKind
	Target Target
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("generation error (%s)", e.Kind)
	if e.Target != "" {
		msg += " for target " + string(e.Target)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var packagePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DefaultPackage derives a package name from the first protocol.
func DefaultPackage(m *protocol.Model) string {
	if m == nil || len(m.Protocols) == 0 {
		return "protocols"
	}
	return snake(m.Protocols[0].Name)
}

// Generate renders every protocol of m for opts.Target. m must only hold
// protocols that passed validation.
func Generate(m *protocol.Model, opts Options) ([]Artifact, error) {
	spec, ok := targetSpecs[opts.Target]
	if !ok {
		return nil, &GenerationError{Kind: UnsupportedTarget, Target: opts.Target, Detail: string(opts.Target)}
	}
	if m == nil || len(m.Protocols) == 0 {
		return nil, &GenerationError{Kind: EmptyModel, Target: opts.Target, Detail: "no protocol to generate"}
	}
	if opts.Package == "" {
		opts.Package = DefaultPackage(m)
	}
	if !packagePattern.MatchString(opts.Package) {
		return nil, &GenerationError{Kind: InvalidPackage, Target: opts.Target,
			Detail: fmt.Sprintf("%q must be lower case letters, digits and underscores", opts.Package)}
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = TemplateRenderer{}
	}

	ctx, err := BuildContext(m, opts)
	if err != nil {
		return nil, err
	}

	var out []Artifact
	for _, f := range spec.files {
		if f.validator && !opts.IncludeValidator {
			continue
		}
		body, err := lookupTemplate(opts.Templates, opts.Target, f.template)
		if err != nil {
			return nil, err
		}
		text, err := renderer.Render(f.template, body, ctx)
		if err != nil {
			return nil, &GenerationError{Kind: RenderFailed, Target: opts.Target, Detail: f.template, Err: err}
		}
		if opts.Target == TargetGo && strings.HasSuffix(f.path, ".go") {
			formatted, err := format.Source([]byte(text))
			if err != nil {
				return nil, &GenerationError{Kind: RenderFailed, Target: opts.Target, Detail: f.template, Err: err}
			}
			text = string(formatted)
		}
		out = append(out, Artifact{
			Path:    strings.ReplaceAll(f.path, "{{package}}", opts.Package),
			Content: text,
		})
	}
	return out, nil
}

func lookupTemplate(fsys fs.FS, target Target, name string) (string, error) {
	if fsys != nil {
		data, err := fs.ReadFile(fsys, string(target)+"/"+name+".tmpl")
		if err == nil {
			return string(data), nil
		}
	}
	body, ok := builtinTemplates[target][name]
	if !ok {
		return "", &GenerationError{Kind: RenderFailed, Target: target, Detail: "missing template " + name}
	}
	return body, nil
}
