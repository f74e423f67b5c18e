// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/bmpp/pkg/codegen"
	"github.com/jllopis/bmpp/pkg/config"
	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/format"
	"github.com/jllopis/bmpp/pkg/graph"
	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/pipeline"
	"github.com/jllopis/bmpp/pkg/protocol"
)

const sourceDescription = "Protocol source text: one or more <Protocol> declarations"

func sourceArg(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	src := req.GetString("source", "")
	if src == "" {
		return "", mcp.NewToolResultError("'source' is required")
	}
	return src, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ParseTool handles bmpp_parse.
type ParseTool struct{}

// NewParseTool creates a ParseTool.
func NewParseTool() *ParseTool { return &ParseTool{} }

// Definition returns the schema of bmpp_parse.
func (t *ParseTool) Definition() mcp.Tool {
	return mcp.NewTool("bmpp_parse",
		mcp.WithDescription("Parse protocol text and return its structured model. Reference problems are listed as diagnostics."),
		mcp.WithString("source", mcp.Required(), mcp.Description(sourceDescription)),
		mcp.WithString("output",
			mcp.Description("Model encoding: json (default) or yaml"),
			mcp.Enum("json", "yaml"),
		),
	)
}

// Handle parses and links the source.
func (t *ParseTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, bad := sourceArg(req)
	if bad != nil {
		return bad, nil
	}
	model, diags, err := parser.ParseAndLink(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch req.GetString("output", "json") {
	case "yaml":
		data, err := protocol.MarshalYAML(model)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode model: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	case "json":
		if diags == nil {
			diags = []diag.Diagnostic{}
		}
		return jsonResult(struct {
			Model       *protocol.Model   `json:"model"`
			Diagnostics []diag.Diagnostic `json:"diagnostics"`
		}{model, diags})
	default:
		return mcp.NewToolResultError("'output' must be json or yaml"), nil
	}
}

// ValidateTool handles bmpp_validate.
type ValidateTool struct {
	pipeline *pipeline.Pipeline
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(p *pipeline.Pipeline) *ValidateTool {
	return &ValidateTool{pipeline: p}
}

// Definition returns the schema of bmpp_validate.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("bmpp_validate",
		mcp.WithDescription("Check protocols for safety, completeness, causality, enactability and composition consistency. "+
			"Returns every error and warning and the protocols accepted for generation."),
		mcp.WithString("source", mcp.Required(), mcp.Description(sourceDescription)),
	)
}

type validateResult struct {
	RunID  string       `json:"run_id"`
	Valid  bool         `json:"valid"`
	Report *diag.Report `json:"report"`
}

// Handle validates the source.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, bad := sourceArg(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.Check(ctx, pipeline.Source{Name: "mcp", Text: src, Command: "mcp.validate"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(validateResult{RunID: res.RunID, Valid: !res.Report.HasErrors(), Report: res.Report})
}

// GenerateTool handles bmpp_generate.
type GenerateTool struct {
	pipeline *pipeline.Pipeline
	defaults func() config.CodegenConfig
}

// NewGenerateTool creates a GenerateTool. Arguments a call leaves out are
// taken from defaults when it is not nil.
func NewGenerateTool(p *pipeline.Pipeline, defaults func() config.CodegenConfig) *GenerateTool {
	return &GenerateTool{pipeline: p, defaults: defaults}
}

// options merges the call arguments over the defaults.
func (t *GenerateTool) options(req mcp.CallToolRequest) (codegen.Options, error) {
	d := config.CodegenConfig{Target: string(codegen.TargetGo)}
	if t.defaults != nil {
		d = t.defaults()
	}
	target, err := codegen.ParseTarget(req.GetString("target", d.Target))
	if err != nil {
		return codegen.Options{}, err
	}
	opts := codegen.Options{
		Target:           target,
		Package:          req.GetString("package", d.Package),
		IncludeValidator: req.GetBool("include_validator", d.IncludeValidator),
	}
	if d.TemplateDir != "" {
		opts.Templates = os.DirFS(d.TemplateDir)
	}
	return opts, nil
}

// Definition returns the schema of bmpp_generate.
func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("bmpp_generate",
		mcp.WithDescription("Validate protocols and generate agent scaffolding for the accepted ones. Returns the generated files."),
		mcp.WithString("source", mcp.Required(), mcp.Description(sourceDescription)),
		mcp.WithString("target",
			mcp.Description("Target language: go, rust or python (default from the server configuration)"),
			mcp.Enum("go", "rust", "python"),
		),
		mcp.WithString("package", mcp.Description("Package or crate name; defaults to the first protocol name in snake case")),
		mcp.WithBoolean("include_validator", mcp.Description("Also generate a runtime trace validator")),
	)
}

type generateResult struct {
	RunID     string             `json:"run_id"`
	Accepted  []string           `json:"accepted"`
	Errors    []diag.Diagnostic  `json:"errors"`
	Warnings  []diag.Diagnostic  `json:"warnings"`
	Artifacts []codegen.Artifact `json:"artifacts"`
}

// Handle generates code.
func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, bad := sourceArg(req)
	if bad != nil {
		return bad, nil
	}
	opts, err := t.options(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.pipeline.Compile(ctx,
		pipeline.Source{Name: "mcp", Text: src, Command: "mcp.generate"},
		opts,
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	artifacts := res.Artifacts
	if artifacts == nil {
		artifacts = []codegen.Artifact{}
	}
	out := generateResult{
		RunID:     res.RunID,
		Accepted:  res.Report.Accepted,
		Errors:    res.Report.Errors,
		Warnings:  res.Report.Warnings,
		Artifacts: artifacts,
	}
	if len(out.Accepted) == 0 {
		r, _ := jsonResult(out)
		r.IsError = true
		return r, nil
	}
	return jsonResult(out)
}

// FormatTool handles bmpp_format.
type FormatTool struct{}

// NewFormatTool creates a FormatTool.
func NewFormatTool() *FormatTool { return &FormatTool{} }

// Definition returns the schema of bmpp_format.
func (t *FormatTool) Definition() mcp.Tool {
	return mcp.NewTool("bmpp_format",
		mcp.WithDescription("Rewrite protocol text in canonical layout. Comments are dropped."),
		mcp.WithString("source", mcp.Required(), mcp.Description(sourceDescription)),
	)
}

// Handle formats the source.
func (t *FormatTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, bad := sourceArg(req)
	if bad != nil {
		return bad, nil
	}
	out, err := format.Source(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

// GraphTool handles bmpp_graph.
type GraphTool struct{}

// NewGraphTool creates a GraphTool.
func NewGraphTool() *GraphTool { return &GraphTool{} }

// Definition returns the schema of bmpp_graph.
func (t *GraphTool) Definition() mcp.Tool {
	return mcp.NewTool("bmpp_graph",
		mcp.WithDescription("Render the parameter dependency graph of a protocol: an edge runs from the producer of a parameter to each consumer."),
		mcp.WithString("source", mcp.Required(), mcp.Description(sourceDescription)),
		mcp.WithString("protocol", mcp.Description("Protocol to render; defaults to the first one")),
		mcp.WithString("format",
			mcp.Description("Output format: mermaid (default), dot or json"),
			mcp.Enum("mermaid", "dot", "json"),
		),
	)
}

// Handle renders the graph.
func (t *GraphTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, bad := sourceArg(req)
	if bad != nil {
		return bad, nil
	}
	model, _, err := parser.ParseAndLink(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := model.Select(req.GetString("protocol", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := graph.Render(graph.Build(p), req.GetString("format", "mermaid"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
