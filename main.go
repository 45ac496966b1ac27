// quickask - Ask OpenAI one question from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/cli"
	"github.com/jeranaias/quickask/internal/config"
	"github.com/jeranaias/quickask/internal/logging"
	"github.com/jeranaias/quickask/internal/openai"
	"github.com/jeranaias/quickask/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdVersion:
		exit(cli.HandleVersion(os.Stdout, args))
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	}

	cfg := config.Global()
	debug := config.DebugEnabled(cfg, args.Debug)

	logOpts := logging.Options{Debug: debug, Output: os.Stderr}
	if cmd == cli.CmdTUI {
		logOpts.Path = debugLogPath(cfg)
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (diagnostics disabled)\n", err)
		logger, closeLog = zap.NewNop(), func() {}
	}

	resolver := config.DefaultKeyResolver()
	client := newClient(cfg, resolver, logger)

	// Presence only. The key itself is never logged.
	logger.Info("starting",
		zap.String("version", Version),
		zap.Stringer("command", cmd),
		zap.Bool("OPENAI_API_KEY present", os.Getenv(config.APIKeyEnv) != ""),
		zap.Bool("key resolved", resolver.Available()))

	ctx, cancel := context.WithCancel(context.Background())

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, cfg, resolver, client, logger)
	default:
		env := &cli.Env{
			Config:    cfg,
			Keys:      resolver,
			Completer: client,
			Logger:    logger,
			Stdin:     os.Stdin,
			Stdout:    os.Stdout,
			Stderr:    os.Stderr,
			StdinTTY:  cli.IsTTY(),
			Markdown:  cli.IsStdoutTTY() && !args.JSON,
			Width:     cli.GetTerminalWidth(),
		}
		err = dispatch(ctx, cmd, env, args)
	}

	cancel()
	closeLog()
	exit(err)
}

func dispatch(ctx context.Context, cmd cli.Command, env *cli.Env, args cli.Args) error {
	switch cmd {
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, env, args)
	case cli.CmdChat:
		return cli.HandleChat(ctx, env, args)
	case cli.CmdConfig:
		return cli.HandleConfig(env, args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// exit prints err unless a handler already did, then exits with its code.
func exit(err error) {
	if err == nil {
		return
	}
	if !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}

func newClient(cfg *config.Config, resolver *config.KeyResolver, logger *zap.Logger) *openai.Client {
	return openai.New(resolver.Key).
		WithBaseURL(cfg.Cloud.BaseURL).
		WithTimeout(time.Duration(cfg.Cloud.TimeoutSecs) * time.Second).
		WithRateLimit(cfg.Cloud.RequestsPerMinute).
		WithLogger(logger)
}

// debugLogPath is where the TUI writes diagnostics, since it owns the terminal.
func debugLogPath(cfg *config.Config) string {
	if cfg.Debug.LogFile != "" {
		return cfg.Debug.LogFile
	}
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "debug.log")
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI(ctx context.Context, cfg *config.Config, resolver *config.KeyResolver, client *openai.Client, logger *zap.Logger) error {
	app := ui.New(ui.Options{
		Completer: client,
		KeyStatus: func() (string, bool) {
			res, ok := resolver.Resolve()
			return res.Source, ok
		},
		Config: cfg,
		Logger: logger,
	})
	defer app.Close()

	program := tea.NewProgram(app, tea.WithAltScreen())

	// A key written to the config file while the TUI runs is picked up by
	// the next submission; the watcher only refreshes what is displayed.
	if path, err := config.ConfigPathTOML(); err == nil {
		if err := config.EnsureConfigDir(); err != nil {
			logger.Warn("config directory unavailable, not watching", zap.Error(err))
		} else if w, err := config.NewWatcher(path, func(c *config.Config, err error) {
			if err != nil {
				logger.Warn("config reload failed", zap.Error(err))
				return
			}
			program.Send(ui.ConfigChangedMsg{Config: c})
		}); err != nil {
			logger.Warn("config watcher unavailable", zap.Error(err))
		} else {
			go w.Run(ctx)
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
