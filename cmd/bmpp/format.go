// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/format"
)

type formatResult struct {
	Path      string `json:"path"`
	Formatted bool   `json:"formatted"`
	Written   bool   `json:"written,omitempty"`
}

func (a *app) formatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Aliases:   []string{"fmt"},
		Usage:     "Rewrite protocol files in canonical layout",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write the result back to each file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "List files that are not formatted and fail if there are any",
			},
		},
		Action: a.action(a.runFormat),
	}
}

func (a *app) runFormat(_ context.Context, cmd *cli.Command) error {
	write, check := cmd.Bool("write"), cmd.Bool("check")
	if write && check {
		return NewInvalidArgumentError("--write", "cannot be combined with --check")
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		if write {
			return NewInvalidArgumentError("--write", "needs at least one file")
		}
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return errors.New(errors.CodeInvalidInput, "cannot read stdin", err)
		}
		return a.formatOne("<stdin>", string(data), check)
	}

	var results []formatResult
	unformatted := 0
	for _, path := range paths {
		text, err := readFile(path)
		if err != nil {
			return err
		}
		out, err := format.Source(text)
		if err != nil {
			return newParseError(path, err)
		}
		res := formatResult{Path: path, Formatted: out == text}
		switch {
		case check:
			if !res.Formatted {
				unformatted++
				if !a.jsonOut {
					fmt.Fprintln(a.stdout, path)
				}
			}
		case write:
			if !res.Formatted {
				if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
					return errors.New(errors.CodeInvalidInput, "cannot write "+path, err)
				}
				res.Written = true
				a.logger.Info("file formatted", "path", path)
			}
		default:
			if _, err := io.WriteString(a.stdout, out); err != nil {
				return err
			}
		}
		results = append(results, res)
	}

	if a.jsonOut && (check || write) {
		if err := a.printJSON(results); err != nil {
			return err
		}
	}
	if unformatted > 0 {
		return notFormattedError(unformatted)
	}
	return nil
}

func (a *app) formatOne(name, text string, check bool) error {
	out, err := format.Source(text)
	if err != nil {
		return newParseError(name, err)
	}
	if check {
		if out != text {
			fmt.Fprintln(a.stdout, name)
			return notFormattedError(1)
		}
		return nil
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

func notFormattedError(n int) *CLIError {
	e := errors.Newf(errors.CodeInvalidInput, "%d file(s) not in canonical format", n)
	return NewCLIError(e, "run 'bmpp format --write' on the listed files")
}
