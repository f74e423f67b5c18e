// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the protocol toolchain to MCP clients: parsing,
// validation, code generation, formatting and dependency graphs.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/bmpp/pkg/config"
	"github.com/jllopis/bmpp/pkg/pipeline"
)

// Tool is one MCP tool: its schema and its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Server wraps the mcp-go server with the bmpp tools registered.
type Server struct {
	mcpServer *server.MCPServer
	tools     []Tool
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	defaults func() config.CodegenConfig
}

// WithCodegenDefaults supplies the settings bmpp_generate falls back to
// when a call leaves them out. fn is called on every request, so it may
// return reloaded values.
func WithCodegenDefaults(fn func() config.CodegenConfig) ServerOption {
	return func(o *serverOptions) { o.defaults = fn }
}

// NewServer creates a server whose tools run through p.
func NewServer(name, version string, p *pipeline.Pipeline, opts ...ServerOption) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		tools: Tools(p, o.defaults),
	}
	for _, t := range s.tools {
		s.mcpServer.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// Tools returns every tool backed by p. defaults may be nil.
func Tools(p *pipeline.Pipeline, defaults func() config.CodegenConfig) []Tool {
	return []Tool{
		NewParseTool(),
		NewValidateTool(p),
		NewGenerateTool(p, defaults),
		NewFormatTool(),
		NewGraphTool(),
	}
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
