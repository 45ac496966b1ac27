// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive prompt loop for quickask CLI.
//
// Command: chat
//
// Every line is an independent submission; nothing is carried between
// turns.
//
// Interactive Commands:
//   /help, /h           Show available commands
//   /key                Show which API key source is in use
//   /quit, /q, /exit    Exit
//   Ctrl+C              Cancel the request in flight
//   Ctrl+D              Exit
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/config"
	"github.com/jeranaias/quickask/internal/openai"
	"github.com/jeranaias/quickask/internal/submit"
	"github.com/jeranaias/quickask/internal/util"
)

const chatPrompt = "quickask> "

var chatCommands = []struct{ name, desc string }{
	{"/help", "show this list"},
	{"/key", "show which API key is in use"},
	{"/quit", "exit (or Ctrl+D)"},
}

// lineReader is the part of liner the loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the prompt loop.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads ~/.quickask/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// Prompt reads one line.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// AppendHistory records a submitted line.
func (c *ChatCLI) AppendHistory(item string) {
	c.line.AppendHistory(item)
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() error {
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return err
	}
	return util.AtomicWriteFile(c.historyFile, buf.Bytes(), 0600, 0700)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	if cerr := c.line.Close(); err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	in := NewChatCLI()
	defer func() {
		if err := in.Close(); err != nil {
			env.logger().Warn("could not save chat history", zap.Error(err))
		}
	}()
	return runChat(ctx, env, args, in)
}

func runChat(ctx context.Context, env *Env, args Args, in lineReader) error {
	nav := &consoleNavigator{onResults: func(p submit.Params) {
		fmt.Fprintln(env.Stdout, env.renderReply(p.Response))
		fmt.Fprintln(env.Stdout)
	}}
	alerts := &consoleAlerter{w: env.Stderr}

	session := env.newSession(nav, alerts)
	defer session.Close()

	if !args.Quiet {
		printWelcome(env)
	}

	for {
		input, err := in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(env.Stdout)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "/") {
			if !handleSlashCommand(env, trimmed) {
				return nil
			}
			continue
		}
		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			return nil
		}

		in.AppendHistory(trimmed)
		if res := submitLine(ctx, session, input); res.Cancelled() && !args.Quiet {
			fmt.Fprintln(env.Stderr, WarningStyle.Render("[Cancelled]"))
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// submitLine runs one submission. Ctrl+C while it runs cancels only this
// request.
func submitLine(ctx context.Context, session *submit.Session, input string) openai.Result {
	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	session.SetText(input)
	res, _ := session.Submit(reqCtx)
	return res
}

// handleSlashCommand runs a /command and reports whether the loop continues.
func handleSlashCommand(env *Env, input string) bool {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return false

	case "/help", "/h", "/?":
		fmt.Fprintln(env.Stdout, DimStyle.Render("Type a prompt and press Enter. Ctrl+C cancels a request."))
		for _, c := range chatCommands {
			fmt.Fprintln(env.Stdout, DimStyle.Render("  "+util.PadRight(c.name, 7)+c.desc))
		}

	case "/key":
		if res, ok := env.Keys.Resolve(); ok {
			fmt.Fprintf(env.Stdout, "%s key from %s (sha256:%s)\n",
				SuccessStyle.Render("[OK]"), res.Source, res.Fingerprint())
		} else {
			fmt.Fprintf(env.Stdout, "%s no API key; set %s\n",
				WarningStyle.Render("[!]"), config.APIKeyEnv)
		}

	default:
		fmt.Fprintf(env.Stderr, "%s unknown command %s (try /help)\n", ErrorStyle.Render("[Error]"), fields[0])
	}
	return true
}

func printWelcome(env *Env) {
	fmt.Fprintln(env.Stdout, TitleStyle.Render("quickask chat"))
	fmt.Fprintln(env.Stdout, DimStyle.Render("Each line is sent on its own. /help for commands, Ctrl+D to exit."))
	if env.Keys != nil && !env.Keys.Available() {
		fmt.Fprintf(env.Stdout, "%s no API key found; set %s or run 'quickask config set-key'\n",
			WarningStyle.Render("[!]"), config.APIKeyEnv)
	}
	fmt.Fprintln(env.Stdout)
}
