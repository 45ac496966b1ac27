// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for quickask CLI.
//
// Command: ask [question]
//
// Examples:
//   quickask ask "What is the capital of France?"
//   echo "Explain TCP slow start" | quickask ask
//   quickask ask --json "Hello"
//
// The prompt goes through the same submission session as the TUI: an empty
// prompt or a missing key is rejected before any request, and Ctrl+C cancels
// the request in flight.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/openai"
	"github.com/jeranaias/quickask/internal/submit"
	"github.com/jeranaias/quickask/internal/util"
)

// MaxStdinSize caps a piped prompt (1 MiB).
const MaxStdinSize = 1 << 20

// AskData is the JSON shape of a successful "ask --json".
type AskData struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Model    string `json:"model"`
}

// HandleAsk handles the "ask" command.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	query := args.Query
	if strings.TrimSpace(query) == "" && env.Stdin != nil && !env.StdinTTY {
		data, err := io.ReadAll(io.LimitReader(env.Stdin, MaxStdinSize))
		if err != nil {
			return NewCommandError("ask", "read", "could not read prompt from stdin", err)
		}
		query = string(data)
	}

	var reply submit.Params
	nav := &consoleNavigator{onResults: func(p submit.Params) { reply = p }}
	alerts := &consoleAlerter{w: env.Stderr, record: args.JSON}

	session := env.newSession(nav, alerts)
	defer session.Close()
	session.SetText(query)

	env.logger().Debug("ask", zap.String("prompt", util.Preview(query, 60)))

	// Ctrl+C cancels the request instead of killing the process.
	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	res, ok := session.Submit(reqCtx)
	if !ok {
		title, message, _ := alerts.last()
		kind := openai.KindValidation
		if title == submit.TitleConfiguration {
			kind = openai.KindConfiguration
		}
		if args.JSON {
			NewJSONErrorResponseStr("ask", kind.String(), message).PrintTo(env.Stdout)
		}
		return &ReportedError{Code: ExitCodeForKind(kind), Err: errors.New(message)}
	}

	switch {
	case res.OK():
		return writeAnswer(env, args, reply)

	case res.Cancelled():
		if args.JSON {
			NewJSONErrorResponseStr("ask", res.Kind.String(), openai.MsgCancelled).PrintTo(env.Stdout)
		} else if !args.Quiet {
			fmt.Fprintln(env.Stderr, WarningStyle.Render("[Cancelled]"))
		}
		return &ReportedError{Code: ExitCancelled, Err: res.Err()}

	default:
		if args.JSON {
			_, message, _ := alerts.last()
			NewJSONErrorResponseStr("ask", res.Kind.String(), message).PrintTo(env.Stdout)
		}
		return &ReportedError{Code: ExitCodeForKind(res.Kind), Err: res.Err()}
	}
}

func writeAnswer(env *Env, args Args, reply submit.Params) error {
	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Prompt:   reply.Prompt,
			Response: reply.Response,
			Model:    openai.Model,
		}).PrintTo(env.Stdout)
	}

	// Piped output gets the bare reply.
	if args.Quiet || !env.Markdown {
		_, err := fmt.Fprintln(env.Stdout, env.renderReply(reply.Response))
		return err
	}

	var b strings.Builder
	b.WriteString(SectionStyle.Render("Your Prompt:"))
	b.WriteString("\n  ")
	b.WriteString(reply.Prompt)
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("AI Response:"))
	b.WriteString("\n")
	b.WriteString(env.renderReply(reply.Response))
	_, err := fmt.Fprintln(env.Stdout, b.String())
	return err
}
