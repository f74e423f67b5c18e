// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/pipeline"
)

type validateResult struct {
	RunID  string       `json:"run_id"`
	Source string       `json:"source"`
	Valid  bool         `json:"valid"`
	Report *diag.Report `json:"report"`
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check protocols for safety, completeness, causality, enactability and composition",
		ArgsUsage: "[FILE]",
		Action:    a.action(a.runValidate),
	}
}

func (a *app) runValidate(ctx context.Context, cmd *cli.Command) error {
	src, err := a.readSource(cmd)
	if err != nil {
		return err
	}
	src.Command = pipeline.CommandValidate

	res, err := a.pipeline.Check(ctx, src)
	if err != nil {
		return err
	}

	if a.jsonOut {
		if err := a.printJSON(validateResult{
			RunID:  res.RunID,
			Source: src.Name,
			Valid:  !res.Report.HasErrors(),
			Report: res.Report,
		}); err != nil {
			return err
		}
	} else {
		printReport(a.stdout, res.Report)
	}
	return reportError(res.Report)
}

// reportError is the exit status carrier for a report with errors.
func reportError(r *diag.Report) error {
	if !r.HasErrors() {
		return nil
	}
	return newValidationError(len(r.Errors), len(r.Order)-len(r.Accepted))
}

// printReport writes a human readable summary of r.
func printReport(w io.Writer, r *diag.Report) {
	for _, name := range r.Order {
		status := "accepted"
		if !r.IsAccepted(name) {
			status = "rejected"
		}
		fmt.Fprintf(w, "%s: %s (%d error(s), %d warning(s))\n",
			name, status, len(r.ErrorsFor(name)), len(r.WarningsFor(name)))
	}
	for _, d := range r.Errors {
		fmt.Fprintf(w, "  error   %s\n", d)
	}
	for _, d := range r.Warnings {
		fmt.Fprintf(w, "  warning %s\n", d)
	}
	if len(r.Order) == 0 && len(r.Errors) == 0 {
		fmt.Fprintln(w, "no protocols")
	}
}
