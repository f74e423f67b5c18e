// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/errors"
)

func (a *app) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded pipeline runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only runs with this status: ok, invalid or failed",
			},
			&cli.StringFlag{
				Name:  "protocol",
				Usage: "Only runs that declared this protocol",
			},
			&cli.StringFlag{
				Name:  "command",
				Usage: "Only runs of this command, e.g. validate or mcp.generate",
			},
		},
		Action: a.action(a.runHistory),
	}
}

func (a *app) runHistory(ctx context.Context, cmd *cli.Command) error {
	if a.store == nil {
		return NewCLIError(errors.Newf(errors.CodeInvalidInput, "audit trail is disabled"),
			"enable it with --set audit.enabled=true or BMPP_AUDIT_ENABLED=true")
	}

	status := audit.Status(cmd.String("status"))
	switch status {
	case "", audit.StatusOK, audit.StatusInvalid, audit.StatusFailed:
	default:
		return NewInvalidArgumentError("--status", fmt.Sprintf("unknown status %q", status))
	}
	if cmd.Int("limit") < 0 {
		return NewInvalidArgumentError("--limit", "must not be negative")
	}

	runs, err := a.store.List(ctx, audit.Filter{
		Command:  cmd.String("command"),
		Status:   status,
		Protocol: cmd.String("protocol"),
		Limit:    cmd.Int("limit"),
	})
	if err != nil {
		return errors.New(errors.CodeStorage, "cannot list runs", err)
	}

	if a.jsonOut {
		if runs == nil {
			runs = []audit.Run{}
		}
		return a.printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tCOMMAND\tSOURCE\tSTATUS\tPROTOCOLS\tERRORS\tWARNINGS\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Command,
			r.Source,
			r.Status,
			strings.Join(r.Protocols, ","),
			r.Errors,
			r.Warnings,
			r.Duration().Round(time.Millisecond),
		)
	}
	return w.Flush()
}
