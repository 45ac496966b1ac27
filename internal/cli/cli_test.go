// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/quickask/internal/openai"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{
			name:    "no args starts TUI",
			args:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "ask joins words",
			args:    []string{"ask", "What", "is", "Go?"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "What is Go?" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "ask alias with global flags anywhere",
			args:    []string{"--debug", "a", "--json", "hi", "-q"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.Debug || !a.JSON || !a.Quiet {
					t.Errorf("flags not parsed: %+v", a)
				}
				if a.Query != "hi" {
					t.Errorf("Query = %q, want %q", a.Query, "hi")
				}
			},
		},
		{
			name:    "double dash keeps flag-like words in the prompt",
			args:    []string{"ask", "--", "--json", "is", "a", "flag"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.JSON {
					t.Error("--json after -- must not be a flag")
				}
				if a.Query != "--json is a flag" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:    "chat",
			args:    []string{"chat"},
			wantCmd: CmdChat,
		},
		{
			name:    "config set-key",
			args:    []string{"config", "set-key", "sk-123"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set-key" || a.ConfigVal != "sk-123" {
					t.Errorf("got %q %q", a.Subcommand, a.ConfigVal)
				}
			},
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help",
			args:    []string{"-h"},
			wantCmd: CmdHelp,
		},
		{
			name:    "unknown word falls back to TUI",
			args:    []string{"hello", "there"},
			wantCmd: CmdTUI,
			validate: func(t *testing.T, a Args) {
				if strings.Join(a.Raw, " ") != "hello there" {
					t.Errorf("Raw = %v", a.Raw)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.args)
			if cmd != tt.wantCmd {
				t.Fatalf("ParseArgs(%v) command = %v, want %v", tt.args, cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if CmdAsk.String() != "ask" || CmdTUI.String() != "tui" {
		t.Error("unexpected command names")
	}
	if Command(99).String() != "Command(99)" {
		t.Errorf("unknown command = %q", Command(99).String())
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", &UsageError{Message: "bad"}, ExitUsageError},
		{"reported", &ReportedError{Code: ExitAPIError}, ExitAPIError},
		{"wrapped reported", fmt.Errorf("ask: %w", &ReportedError{Code: ExitCancelled}), ExitCancelled},
		{"failure", &openai.Failure{Kind: openai.KindNetwork}, ExitNetworkError},
		{"configuration", openai.Fail(openai.KindConfiguration, "x").Err(), ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsReported(t *testing.T) {
	if IsReported(errors.New("x")) {
		t.Error("plain error is not reported")
	}
	if !IsReported(fmt.Errorf("wrap: %w", &ReportedError{Code: 1})) {
		t.Error("wrapped ReportedError should be reported")
	}
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

func TestHandleVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := HandleVersion(&buf, Args{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "quickask "+Version) {
		t.Errorf("version output = %q", buf.String())
	}

	buf.Reset()
	if err := HandleVersion(&buf, Args{JSON: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"version": "`+Version+`"`) {
		t.Errorf("json version output = %q", buf.String())
	}
}

func TestPrintUsageMentionsCommands(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, want := range []string{"quickask ask", "quickask chat", "set-key", "OPENAI_API_KEY"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}
