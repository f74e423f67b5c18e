// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/codegen"
	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/pipeline"
)

type compileResult struct {
	RunID     string   `json:"run_id"`
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	OutputDir string   `json:"output_dir"`
	Accepted  []string `json:"accepted"`
	Errors    int      `json:"errors"`
	Warnings  int      `json:"warnings"`
	Files     []string `json:"files"`
}

func (a *app) compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Aliases:   []string{"transpile"},
		Usage:     "Generate agent code for every protocol that passes validation",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Target language: go, rust or python (default from codegen.target)",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for generated files (default from codegen.output_dir)",
			},
			&cli.StringFlag{
				Name:    "package",
				Aliases: []string{"p"},
				Usage:   "Package or crate name (default derived from the first protocol)",
			},
			&cli.BoolFlag{
				Name:  "include-validators",
				Usage: "Also generate the runtime trace validator",
			},
			&cli.StringFlag{
				Name:  "template-dir",
				Usage: "Directory with <target>/<name>.tmpl overrides",
			},
		},
		Action: a.action(a.runCompile),
	}
}

// codegenOptions merges flags over the codegen configuration.
func (a *app) codegenOptions(cmd *cli.Command) (codegen.Options, string, error) {
	cfg := a.cfg.Codegen

	targetName := cfg.Target
	if cmd.IsSet("target") {
		targetName = cmd.String("target")
	}
	target, err := codegen.ParseTarget(targetName)
	if err != nil {
		return codegen.Options{}, "", NewInvalidArgumentError("--target", err.Error())
	}

	opts := codegen.Options{
		Target:           target,
		Package:          cfg.Package,
		IncludeValidator: cfg.IncludeValidator || cmd.Bool("include-validators"),
	}
	if cmd.IsSet("package") {
		opts.Package = cmd.String("package")
	}

	templateDir := cfg.TemplateDir
	if cmd.IsSet("template-dir") {
		templateDir = cmd.String("template-dir")
	}
	if templateDir != "" {
		info, err := os.Stat(templateDir)
		if err != nil || !info.IsDir() {
			return codegen.Options{}, "", NewInvalidArgumentError("--template-dir", templateDir+" is not a directory")
		}
		opts.Templates = os.DirFS(templateDir)
	}

	outputDir := cfg.OutputDir
	if cmd.IsSet("output-dir") {
		outputDir = cmd.String("output-dir")
	}
	return opts, outputDir, nil
}

func (a *app) runCompile(ctx context.Context, cmd *cli.Command) error {
	opts, outputDir, err := a.codegenOptions(cmd)
	if err != nil {
		return err
	}
	src, err := a.readSource(cmd)
	if err != nil {
		return err
	}
	src.Command = pipeline.CommandCompile

	res, err := a.pipeline.Compile(ctx, src, opts)
	if err != nil {
		return err
	}

	files, err := writeArtifacts(outputDir, res.Artifacts)
	if err != nil {
		return err
	}
	a.logger.Info("artifacts written", "run_id", res.RunID, "output_dir", outputDir, "files", len(files))

	if a.jsonOut {
		if err := a.printJSON(compileResult{
			RunID:     res.RunID,
			Source:    src.Name,
			Target:    string(opts.Target),
			OutputDir: outputDir,
			Accepted:  res.Report.Accepted,
			Errors:    len(res.Report.Errors),
			Warnings:  len(res.Report.Warnings),
			Files:     files,
		}); err != nil {
			return err
		}
	} else {
		printReport(a.stdout, res.Report)
		for _, f := range files {
			fmt.Fprintf(a.stdout, "wrote %s\n", f)
		}
	}
	return reportError(res.Report)
}

// writeArtifacts writes each artifact below dir and returns the written
// paths in artifact order.
func writeArtifacts(dir string, artifacts []codegen.Artifact) ([]string, error) {
	files := make([]string, 0, len(artifacts))
	for _, art := range artifacts {
		path := filepath.Join(dir, filepath.FromSlash(art.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return files, errors.New(errors.CodeInvalidInput, "cannot create "+filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(art.Content), 0o644); err != nil {
			return files, errors.New(errors.CodeInvalidInput, "cannot write "+path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
