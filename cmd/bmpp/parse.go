// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/parser"
	"github.com/jllopis/bmpp/pkg/protocol"
)

func (a *app) parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse a protocol file and print its model",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output-ast",
				Usage: "Model output format: json or yaml",
				Value: "json",
			},
		},
		Action: a.action(a.runParse),
	}
}

func (a *app) runParse(_ context.Context, cmd *cli.Command) error {
	format := cmd.String("output-ast")
	if format != "json" && format != "yaml" {
		return NewInvalidArgumentError("--output-ast", fmt.Sprintf("unknown format %q; use json or yaml", format))
	}

	src, err := a.readSource(cmd)
	if err != nil {
		return err
	}
	model, linkDiags, err := parser.ParseAndLink(src.Text)
	if err != nil {
		return newParseError(src.Name, err)
	}

	var out []byte
	if format == "yaml" {
		out, err = protocol.MarshalYAML(model)
	} else {
		out, err = protocol.MarshalJSON(model, true)
		out = append(out, '\n')
	}
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(out); err != nil {
		return err
	}

	// Link problems do not stop the model from being printed; validate
	// reports them with the semantic checks.
	for _, d := range linkDiags {
		fmt.Fprintf(a.stderr, "%s %s\n", d.Severity(), d)
	}
	a.logger.Debug("source parsed", "source", src.Name, "protocols", len(model.Protocols), "link_diagnostics", len(linkDiags))
	return nil
}
