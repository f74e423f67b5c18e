// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/cmd/bmpp/scaffold"
	"github.com/jllopis/bmpp/pkg/errors"
)

func (a *app) initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create a starter protocol file",
		ArgsUsage: "NAME",
		Description: `Templates:
   basic         two roles, one request and one response (default)
   multi-party   an initiator delegating work through a coordinator
   composition   an outer protocol enacting an inner one`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "Template: " + strings.Join(scaffold.Templates, ", "),
				Value:   scaffold.TemplateBasic,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Protocol name, when not given as an argument",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory to create the files in",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "with-config",
				Usage: "Also write a bmpp.yaml with code generation defaults",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Overwrite existing files",
			},
		},
		Action: a.action(a.runInit),
	}
}

func (a *app) runInit(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		name = cmd.String("name")
	}
	if name == "" {
		return NewInvalidArgumentError("NAME", "a protocol name is required")
	}

	files, err := scaffold.Generate(scaffold.Options{
		Name:     name,
		Template: cmd.String("template"),
		Config:   cmd.Bool("with-config"),
		Target:   a.cfg.Codegen.Target,
	})
	if err != nil {
		return NewInvalidArgumentError("--template", err.Error())
	}

	dir := cmd.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(errors.CodeInvalidInput, "cannot create "+dir, err)
	}

	overwrite := cmd.Bool("overwrite")
	var created []string
	for _, f := range files {
		path := filepath.Join(dir, f.Path)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				return NewCLIError(
					errors.Newf(errors.CodeInvalidInput, "%s already exists", path),
					"use --overwrite to replace it")
			} else if !stderrors.Is(err, fs.ErrNotExist) {
				return errors.New(errors.CodeInvalidInput, "cannot stat "+path, err)
			}
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return errors.New(errors.CodeInvalidInput, "cannot write "+path, err)
		}
		created = append(created, path)
	}

	if a.jsonOut {
		return a.printJSON(struct {
			Template string   `json:"template"`
			Files    []string `json:"files"`
		}{cmd.String("template"), created})
	}
	for _, path := range created {
		fmt.Fprintf(a.stdout, "  Created: %s\n", path)
	}
	fmt.Fprintf(a.stdout, "\nNext: bmpp validate %s\n", created[0])
	return nil
}
