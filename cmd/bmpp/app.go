// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/cmd/bmpp/scaffold"
	"github.com/jllopis/bmpp/pkg/audit"
	"github.com/jllopis/bmpp/pkg/config"
	"github.com/jllopis/bmpp/pkg/errors"
	"github.com/jllopis/bmpp/pkg/llm"
	"github.com/jllopis/bmpp/pkg/pipeline"
	"github.com/jllopis/bmpp/pkg/telemetry"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// newProvider builds the LLM provider for the nlconv commands.
	newProvider func(config.LLMConfig) (llm.Provider, error)

	jsonOut  bool
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *telemetry.PipelineMetrics
	store    audit.Store
	pipeline *pipeline.Pipeline
	shutdown telemetry.ShutdownFunc
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		newProvider: newProvider,
	}
}

// action wraps a command body with setup and teardown of the shared
// collaborators.
func (a *app) action(run cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		defer a.teardown(ctx)
		return run(ctx, cmd)
	}
}

func (a *app) setup(cmd *cli.Command) error {
	a.jsonOut = cmd.Bool("json")

	path := cmd.String("config")
	cfg, err := config.LoadWithOverrides(path, cmd.StringSlice("set"))
	if err != nil {
		return NewConfigError(err, path)
	}
	a.cfg = cfg

	a.logger = telemetry.ConfigureSlog(a.stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)

	shutdown, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		Writer:       a.stderr,
	})
	if err != nil {
		return NewConfigError(err, path)
	}
	a.shutdown = shutdown

	metrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		return errors.New(errors.CodeInternal, "cannot create metrics", err)
	}
	a.metrics = metrics

	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(metrics),
	}
	if cfg.Audit.Enabled {
		store, err := audit.OpenSQLite(cfg.Audit.Path)
		if err != nil {
			return errors.New(errors.CodeStorage, "cannot open audit store", err).
				WithContext("path", cfg.Audit.Path)
		}
		a.store = store
		opts = append(opts, pipeline.WithAudit(store))
	}
	a.pipeline = pipeline.New(opts...)
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("audit store close failed", "error", err)
		}
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
}

// report prints err and returns the process exit code.
func (a *app) report(err error) int {
	cerr := asCLIError(err)
	cerr.Print(a.stderr, a.jsonOut)
	return cerr.ExitCode()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSource reads the protocol file named by the first argument, or
// stdin when it is absent or "-".
func (a *app) readSource(cmd *cli.Command) (pipeline.Source, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return pipeline.Source{}, errors.New(errors.CodeInvalidInput, "cannot read stdin", err)
		}
		return pipeline.Source{Name: "<stdin>", Text: string(data)}, nil
	}
	text, err := readFile(path)
	if err != nil {
		return pipeline.Source{}, err
	}
	return pipeline.Source{Name: path, Text: text}, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInvalidInput
		if stderrors.Is(err, fs.ErrNotExist) {
			code = errors.CodeNotFound
		}
		return "", errors.New(code, "cannot read "+path, err).WithContext("path", path)
	}
	return string(data), nil
}

// newProvider builds the configured LLM provider.
func newProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		ollama := llm.NewOllama(cfg.BaseURL, llm.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
		retry := llm.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Retries + 1
		return llm.WithRetry(ollama, retry), nil
	case "mock":
		files, err := scaffold.Generate(scaffold.Options{Name: "Example"})
		if err != nil {
			return nil, err
		}
		return llm.NewMockProvider("```bmpp\n" + files[0].Content + "```"), nil
	}
	return nil, errors.Newf(errors.CodeInvalidInput, "unknown llm provider %q", cfg.Provider)
}
