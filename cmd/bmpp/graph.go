// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/graph"
	"github.com/jllopis/bmpp/pkg/parser"
)

type graphResult struct {
	Protocol string `json:"protocol"`
	Format   string `json:"format"`
	Content  string `json:"content"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
}

func (a *app) graphCommand() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Print the dependency graph of a protocol",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(graph.Formats, ", "),
				Value:   "mermaid",
			},
			&cli.StringFlag{
				Name:    "protocol",
				Aliases: []string{"p"},
				Usage:   "Protocol to render (default: the first one)",
			},
		},
		Action: a.action(a.runGraph),
	}
}

func (a *app) runGraph(_ context.Context, cmd *cli.Command) error {
	src, err := a.readSource(cmd)
	if err != nil {
		return err
	}
	model, _, err := parser.ParseAndLink(src.Text)
	if err != nil {
		return newParseError(src.Name, err)
	}
	p, err := model.Select(cmd.String("protocol"))
	if err != nil {
		return NewCLIError(errors.New(errors.CodeNotFound, err.Error(), nil),
			"available protocols: "+strings.Join(model.Names(), ", "))
	}

	g := graph.Build(p)
	content, err := graph.Render(g, cmd.String("format"))
	if err != nil {
		return NewInvalidArgumentError("--format", err.Error())
	}

	if a.jsonOut {
		return a.printJSON(graphResult{
			Protocol: p.Name,
			Format:   cmd.String("format"),
			Content:  content,
			Nodes:    g.Len(),
			Edges:    len(g.Edges()),
		})
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err = io.WriteString(a.stdout, content)
	return err
}
