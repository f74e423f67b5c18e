// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/nlconv"
)

func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model name (default from llm.model)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the result to a file instead of stdout",
		},
	}
}

func (a *app) fromProtocolCommand() *cli.Command {
	return &cli.Command{
		Name:      "from-protocol",
		Usage:     "Explain a protocol in natural language",
		ArgsUsage: "[FILE]",
		Flags: append(llmFlags(),
			&cli.StringFlag{
				Name:    "style",
				Aliases: []string{"s"},
				Usage:   "Explanation style: " + joinStyles(),
				Value:   string(nlconv.StyleDetailed),
			},
		),
		Action: a.action(a.runFromProtocol),
	}
}

func (a *app) toProtocolCommand() *cli.Command {
	return &cli.Command{
		Name:      "to-protocol",
		Usage:     "Write a protocol from a natural language description",
		ArgsUsage: "[DESCRIPTION | FILE]",
		Description: "The description is read from the argument, from the file it names, or\n" +
			"   from stdin. Answers are parsed and validated; problems are sent back to\n" +
			"   the model until it produces a valid protocol or the attempts run out.",
		Flags: append(llmFlags(),
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Answers to request at most (default from llm.max_attempts)",
			},
			&cli.BoolFlag{
				Name:  "skip-validation",
				Usage: "Accept any answer that parses",
			},
		),
		Action: a.action(a.runToProtocol),
	}
}

func joinStyles() string {
	names := make([]string, len(nlconv.Styles))
	for i, s := range nlconv.Styles {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func (a *app) converter(cmd *cli.Command, opts ...nlconv.Option) (*nlconv.Converter, error) {
	provider, err := a.newProvider(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	model := a.cfg.LLM.Model
	if cmd.IsSet("model") {
		model = cmd.String("model")
	}
	opts = append([]nlconv.Option{
		nlconv.WithMaxAttempts(a.cfg.LLM.MaxAttempts),
		nlconv.WithMetrics(a.metrics),
		nlconv.WithLogger(a.logger),
	}, opts...)
	return nlconv.New(provider, model, opts...), nil
}

func (a *app) runFromProtocol(ctx context.Context, cmd *cli.Command) error {
	style, err := nlconv.ParseStyle(cmd.String("style"))
	if err != nil {
		return NewInvalidArgumentError("--style", err.Error())
	}
	src, err := a.readSource(cmd)
	if err != nil {
		return err
	}
	conv, err := a.converter(cmd)
	if err != nil {
		return err
	}

	text, err := conv.FromProtocol(ctx, src.Text, style)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return a.printJSON(struct {
			Source      string `json:"source"`
			Style       string `json:"style"`
			Explanation string `json:"explanation"`
		}{src.Name, string(style), text})
	}
	return a.emit(cmd.String("output"), text+"\n")
}

func (a *app) runToProtocol(ctx context.Context, cmd *cli.Command) error {
	description, err := a.description(cmd)
	if err != nil {
		return err
	}
	var opts []nlconv.Option
	if cmd.IsSet("max-attempts") {
		opts = append(opts, nlconv.WithMaxAttempts(cmd.Int("max-attempts")))
	}
	if cmd.Bool("skip-validation") {
		opts = append(opts, nlconv.WithSkipValidation(true))
	}
	conv, err := a.converter(cmd, opts...)
	if err != nil {
		return err
	}

	result, err := conv.ToProtocol(ctx, description)
	if err != nil {
		if result != nil {
			for _, at := range result.Attempts {
				for _, p := range at.Problems {
					a.logger.Warn("rejected answer", "attempt", at.Number, "problem", p)
				}
			}
		}
		return err
	}
	a.logger.Info("protocol generated", "attempts", len(result.Attempts), "protocols", len(result.Model.Protocols))

	if a.jsonOut {
		return a.printJSON(result)
	}
	return a.emit(cmd.String("output"), result.Text)
}

// description resolves the to-protocol input: an existing file path, the
// literal argument text, or stdin.
func (a *app) description(cmd *cli.Command) (string, error) {
	arg := strings.Join(cmd.Args().Slice(), " ")
	if arg == "" || arg == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", errors.New(errors.CodeInvalidInput, "cannot read stdin", err)
		}
		return string(data), nil
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return readFile(arg)
	}
	return arg, nil
}

// emit writes text to path, or stdout when path is empty.
func (a *app) emit(path, text string) error {
	if path == "" {
		_, err := io.WriteString(a.stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.New(errors.CodeInvalidInput, "cannot write "+path, err)
	}
	fmt.Fprintf(a.stderr, "wrote %s\n", path)
	return nil
}
