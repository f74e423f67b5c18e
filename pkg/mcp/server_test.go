// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/config"
	"github.com/jllopis/bmpp/pkg/pipeline"
)

const pingSrc = `Ping <Protocol>("ping") {
    roles A <Agent>("a"), B <Agent>("b")
    parameters id <String>("id"), ack <Bool>("ack")
    A -> B: ping <Action>("ping")[out id]
    B -> A: pong <Action>("pong")[in id, out ack]
}`

const brokenSrc = `Broken <Protocol>("broken") {
    roles A <Agent>("a"), B <Agent>("b")
    parameters x <String>("x"), y <String>("y")
    A -> B: send <Action>("send")[in x, out y]
}`

func newPipeline(store audit.Store) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.WithAudit(store),
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDefinitions(t *testing.T) {
	names := map[string]bool{}
	for _, tool := range Tools(newPipeline(nil), nil) {
		def := tool.Definition()
		names[def.Name] = true
		assert.Contains(t, def.InputSchema.Required, "source", def.Name)
		assert.NotEmpty(t, def.Description, def.Name)
	}
	assert.Equal(t, map[string]bool{
		"bmpp_parse":    true,
		"bmpp_validate": true,
		"bmpp_generate": true,
		"bmpp_format":   true,
		"bmpp_graph":    true,
	}, names)
}

func TestMissingSource(t *testing.T) {
	for _, tool := range Tools(newPipeline(nil), nil) {
		res, err := tool.Handle(context.Background(), makeReq(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError, tool.Definition().Name)
		assert.Contains(t, resultText(res), "'source' is required")
	}
}

func TestParseTool(t *testing.T) {
	tool := NewParseTool()

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var out struct {
		Model struct {
			Protocols []struct {
				Name string `json:"name"`
			} `json:"protocols"`
		} `json:"model"`
		Diagnostics []any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	require.Len(t, out.Model.Protocols, 1)
	assert.Equal(t, "Ping", out.Model.Protocols[0].Name)
	assert.Empty(t, out.Diagnostics)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc, "output": "yaml"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(res), "name: Ping")

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"source": "Ping <Protocol>("}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "parse error")
}

func TestValidateTool(t *testing.T) {
	store := audit.NewMemoryStore()
	tool := NewValidateTool(newPipeline(store))

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc + "\n" + brokenSrc}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out validateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{"Ping"}, out.Report.Accepted)
	require.NotEmpty(t, out.Report.Errors)
	assert.Equal(t, "Broken", out.Report.Errors[0].Protocol)

	runs, err := store.List(context.Background(), audit.Filter{Command: "mcp.validate"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
}

func TestGenerateTool(t *testing.T) {
	tool := NewGenerateTool(newPipeline(nil), nil)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"source":            pingSrc,
		"target":            "python",
		"package":           "pingpong",
		"include_validator": true,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var out generateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	paths := make([]string, 0, len(out.Artifacts))
	for _, a := range out.Artifacts {
		paths = append(paths, a.Path)
	}
	assert.ElementsMatch(t, []string{
		"pingpong/__init__.py",
		"pingpong/agents.py",
		"pingpong/validator.py",
		"pyproject.toml",
	}, paths)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"source": brokenSrc}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.Empty(t, out.Artifacts)
	assert.NotEmpty(t, out.Errors)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc, "target": "cobol"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGenerateToolDefaults(t *testing.T) {
	defaults := config.CodegenConfig{Target: "rust", Package: "from_config"}
	tool := NewGenerateTool(newPipeline(nil), func() config.CodegenConfig { return defaults })

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var out generateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	files := make(map[string]string, len(out.Artifacts))
	for _, a := range out.Artifacts {
		files[a.Path] = a.Content
	}
	require.Contains(t, files, "Cargo.toml")
	assert.Contains(t, files["Cargo.toml"], `"from_config"`)
	assert.NotContains(t, files, "src/validator.rs")

	// Call arguments win over the defaults, which are read per call.
	defaults.IncludeValidator = true
	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"source": pingSrc, "target": "go"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	paths := make([]string, 0, len(out.Artifacts))
	for _, a := range out.Artifacts {
		paths = append(paths, a.Path)
	}
	assert.ElementsMatch(t, []string{"protocol.go", "validator.go", "go.mod"}, paths)
}

func TestFormatTool(t *testing.T) {
	res, err := NewFormatTool().Handle(context.Background(), makeReq(map[string]any{"source": pingSrc}))
	require.NoError(t, err)
	text := resultText(res)
	assert.True(t, strings.HasPrefix(text, "Ping <Protocol>(\"ping\") {\n    roles\n"))
}

func TestGraphTool(t *testing.T) {
	tool := NewGraphTool()
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr bool
	}{
		{name: "mermaid default", args: map[string]any{"source": pingSrc}, want: "graph TD"},
		{name: "dot", args: map[string]any{"source": pingSrc, "format": "dot"}, want: `digraph "Ping"`},
		{name: "json", args: map[string]any{"source": pingSrc, "format": "json", "protocol": "Ping"}, want: `"protocol": "Ping"`},
		{name: "unknown protocol", args: map[string]any{"source": pingSrc, "protocol": "Pong"}, wantErr: true},
		{name: "unknown format", args: map[string]any{"source": pingSrc, "format": "svg"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, res.IsError)
			if !tt.wantErr {
				assert.Contains(t, resultText(res), tt.want)
			}
		})
	}
}

func TestServerInProcess(t *testing.T) {
	ctx := context.Background()
	srv := NewServer("bmpp", "test", newPipeline(nil))

	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "bmpp-test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 5)

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = "bmpp_format"
	callReq.Params.Arguments = map[string]any{"source": pingSrc}
	res, err := c.CallTool(ctx, callReq)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(res), "Ping <Protocol>")
}
