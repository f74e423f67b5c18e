// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the bmpp command line tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := a.command().Run(ctx, os.Args)
	stop()
	if err != nil {
		os.Exit(a.report(err))
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:                  "bmpp",
		Usage:                 "Parse, validate and generate code from BSPL/BMPP interaction protocols",
		Version:               version,
		EnableShellCompletion: true,
		Reader:                a.stdin,
		Writer:                a.stdout,
		ErrWriter:             a.stderr,
		// Errors are printed by report, which also picks the exit code.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("BMPP_CONFIG"),
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Override a configuration key, as section.key=value (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results and errors as JSON",
			},
		},
		Commands: []*cli.Command{
			a.parseCommand(),
			a.validateCommand(),
			a.compileCommand(),
			a.formatCommand(),
			a.initCommand(),
			a.graphCommand(),
			a.fromProtocolCommand(),
			a.toProtocolCommand(),
			a.serveCommand(),
			a.historyCommand(),
		},
	}
}
