// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the diagnostic logger for quickask.
//
// Diagnostics are gated by a debug flag passed in at construction. With
// debug off every component receives a no-op logger, so call sites never
// check the flag themselves.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component names used for Named loggers.
const (
	OpenAI = "openai"
	Submit = "submit"
	UI     = "ui"
	Config = "config"
	CLI    = "cli"
)

// Options configures New.
type Options struct {
	// Debug enables diagnostics. When false, New returns zap.NewNop().
	Debug bool
	// Output receives log lines. Ignored when Path is set.
	Output io.Writer
	// Path, when set, appends log lines to a file (the TUI owns the terminal).
	Path string
}

// New returns a logger for opts and a cleanup func that syncs and closes
// any file it opened.
func New(opts Options) (*zap.Logger, func(), error) {
	if !opts.Debug {
		return zap.NewNop(), func() {}, nil
	}

	var (
		sink    zapcore.WriteSyncer
		closeFn = func() {}
	)
	switch {
	case opts.Path != "":
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closeFn = func() { _ = f.Close() }
	case opts.Output != nil:
		sink = zapcore.AddSync(opts.Output)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, zapcore.DebugLevel)

	logger := zap.New(core).Named("DEBUG")
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
