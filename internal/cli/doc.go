// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands.
//
// # Key Types
//
//   - Command: the available commands
//   - Args: parsed global and command-specific flags
//   - Env: collaborators built once by main and passed to every handler
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, env, args)
//	}
//	os.Exit(cli.GetExitCode(err))
//
// ask and chat drive the same submit.Session as the TUI, with a console
// navigator that prints the reply and an alerter that writes to stderr. All
// commands with structured output support --json.
package cli
