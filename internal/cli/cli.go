// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for quickask.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdVersion
	CmdHelp
)

func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Debug bool
	Quiet bool
	JSON  bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `quickask - one question, one answer

Sends a prompt to the OpenAI chat-completions API and shows the reply.

Usage:
  quickask                       Start the TUI (default)
  quickask ask "question"        Ask a single question
  quickask chat                  Line-edited prompt loop
  quickask config [show|path]    Show configuration
  quickask config set-key [KEY]  Store an API key in the config file
  quickask version               Show version information
  quickask help                  Show this help

Global Flags:
  --debug                        Write diagnostics (stderr, or the log file in the TUI)
  -q, --quiet                    Print only the response
  --json                         Machine-readable output (ask, config, version)

API Key (first non-empty wins):
  1. Build-time key (-ldflags "-X .../config.BuildAPIKey=...")
  2. OPENAI_API_KEY environment variable
  3. cloud.openai_key in ~/.quickask/config.toml

Environment:
  OPENAI_API_KEY                 API key
  QUICKASK_DEBUG                 1/true/yes enables diagnostics
  QUICKASK_BASE_URL              API base URL (default https://api.openai.com/v1)
  QUICKASK_TIMEOUT               Request timeout in seconds
  QUICKASK_RPM                   Client-side requests per minute (0 = unlimited)

TUI Keys:
  Ctrl+S                         Submit
  Esc                            Cancel request / back from results
  Ctrl+C                         Quit

Examples:
  quickask ask "What is the capital of France?"
  echo "Summarize RFC 2616 in one line" | quickask ask
  quickask ask --json "Hello"
  OPENAI_API_KEY=sk-... quickask chat
`

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments and returns the command and parsed args.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := remaining[0]
	remaining = remaining[1:]

	switch cmd {
	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parsedArgs.Raw = remaining
		return CmdChat, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - default to TUI with the words kept for the caller
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Everything after "--" is positional.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			remaining = append(remaining, args[i:]...)
			break
		}
		switch arg {
		case "--debug":
			parsedArgs.Debug = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--json":
			parsedArgs.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs joins the positional words into the query.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	literal := false
	for _, arg := range remaining {
		if arg == "--" && !literal {
			literal = true
			continue
		}
		query = append(query, arg)
	}
	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigVal = remaining[1]
		}
	}
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// VersionData is the JSON shape of "quickask version".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "quickask %s\n", Version)
	fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).PrintTo(w)
	}
	PrintVersion(w)
	return nil
}

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
