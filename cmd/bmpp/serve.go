// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jllopis/bmpp/pkg/config"
	"github.com/jllopis/bmpp/pkg/mcp"
)

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the toolchain as MCP tools over stdio",
		Description: "Tools: bmpp_parse, bmpp_validate, bmpp_generate, bmpp_format, bmpp_graph.\n" +
			"   Logs go to stderr; stdout carries the MCP session. With --watch, changes\n" +
			"   to the codegen section of --config apply to later bmpp_generate calls.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the configuration file when it changes",
			},
			&cli.DurationFlag{
				Name:  "watch-interval",
				Usage: "Polling interval for --watch",
				Value: 2 * time.Second,
			},
		},
		Action: a.action(a.runServe),
	}
}

func (a *app) runServe(ctx context.Context, cmd *cli.Command) error {
	current := config.NewReloadableConfig(a.cfg)

	if path := cmd.String("config"); cmd.Bool("watch") && path != "" {
		watcher, _, err := config.WatchConfig(ctx, path,
			config.WithOverrides(cmd.StringSlice("set")),
			config.WithWatchInterval(cmd.Duration("watch-interval")),
			config.WithWatchLogger(a.logger),
		)
		if err != nil {
			return NewConfigError(err, path)
		}
		defer watcher.Stop()
		watcher.OnChange(current.Update)
		a.logger.Info("watching configuration", "path", path)
	}

	srv := mcp.NewServer(a.cfg.MCP.Name, a.cfg.MCP.Version, a.pipeline,
		mcp.WithCodegenDefaults(current.Codegen),
	)
	a.logger.Info("serving MCP over stdio", "name", a.cfg.MCP.Name, "version", a.cfg.MCP.Version, "audit", a.store != nil)
	return srv.ServeStdio()
}
