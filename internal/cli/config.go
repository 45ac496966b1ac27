// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The "config" command.
//
//   quickask config [show]       Effective configuration and key source
//   quickask config path         Config file location
//   quickask config set-key KEY  Store cloud.openai_key (prompts if KEY is omitted)
//
// The key itself is never printed; only its SHA-256 fingerprint.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/quickask/internal/config"
)

// ConfigData is the JSON shape of "config show".
type ConfigData struct {
	Path              string `json:"path"`
	KeySource         string `json:"key_source"`
	KeyFingerprint    string `json:"key_fingerprint"`
	BaseURL           string `json:"base_url"`
	TimeoutSecs       int    `json:"timeout_secs"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	WordWrap          int    `json:"word_wrap"`
	DarkMode          string `json:"dark_mode"`
	DebugEnabled      bool   `json:"debug_enabled"`
	DebugLogFile      string `json:"debug_log_file,omitempty"`
}

// HandleConfig handles the "config" command.
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(env, args)
	case "path":
		return handleConfigPath(env, args)
	case "set-key":
		return handleConfigSetKey(env, args.ConfigVal)
	default:
		return &UsageError{Message: fmt.Sprintf("unknown config subcommand: %s\nUsage: quickask config [show|path|set-key]", args.Subcommand)}
	}
}

func configPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "(unavailable)"
	}
	return path
}

func collectConfig(env *Env) ConfigData {
	cfg := env.Config
	if cfg == nil {
		cfg = config.Default()
	}

	data := ConfigData{
		Path:              configPath(),
		KeySource:         "none",
		KeyFingerprint:    config.Fingerprint(""),
		BaseURL:           cfg.Cloud.BaseURL,
		TimeoutSecs:       cfg.Cloud.TimeoutSecs,
		RequestsPerMinute: cfg.Cloud.RequestsPerMinute,
		WordWrap:          cfg.UI.WordWrap,
		DarkMode:          cfg.UI.DarkMode,
		DebugEnabled:      cfg.Debug.Enabled,
		DebugLogFile:      cfg.Debug.LogFile,
	}
	if res, ok := env.Keys.Resolve(); ok {
		data.KeySource = res.Source
		data.KeyFingerprint = res.Fingerprint()
	}
	return data
}

func handleConfigShow(env *Env, args Args) error {
	data := collectConfig(env)
	if args.JSON {
		return NewJSONResponse("config show", data).PrintTo(env.Stdout)
	}

	w := env.Stdout
	fmt.Fprintln(w, TitleStyle.Render("quickask configuration"))
	fmt.Fprintln(w, RenderSeparator())

	fmt.Fprintln(w, SectionStyle.Render("[cloud]"))
	if data.KeySource == "none" {
		fmt.Fprintln(w, RenderField("openai_key:", WarningStyle.Render("(not set)")))
	} else {
		fmt.Fprintln(w, RenderField("openai_key:", "sha256:"+data.KeyFingerprint+" from "+data.KeySource))
	}
	fmt.Fprintln(w, RenderField("base_url:", data.BaseURL))
	fmt.Fprintln(w, RenderField("timeout_secs:", strconv.Itoa(data.TimeoutSecs)))
	rpm := "unlimited"
	if data.RequestsPerMinute > 0 {
		rpm = strconv.Itoa(data.RequestsPerMinute)
	}
	fmt.Fprintln(w, RenderField("requests_per_minute:", rpm))

	fmt.Fprintln(w, SectionStyle.Render("[ui]"))
	fmt.Fprintln(w, RenderField("word_wrap:", strconv.Itoa(data.WordWrap)))
	fmt.Fprintln(w, RenderField("dark_mode:", data.DarkMode))

	fmt.Fprintln(w, SectionStyle.Render("[debug]"))
	fmt.Fprintln(w, RenderField("enabled:", strconv.FormatBool(data.DebugEnabled)))
	if data.DebugLogFile != "" {
		fmt.Fprintln(w, RenderField("log_file:", data.DebugLogFile))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderSeparator())
	fmt.Fprintf(w, "Config file: %s\n", data.Path)
	return nil
}

func handleConfigPath(env *Env, args Args) error {
	path := configPath()
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}).PrintTo(env.Stdout)
	}

	fmt.Fprintln(env.Stdout, path)
	if !exists {
		fmt.Fprintf(env.Stderr, "%s file does not exist yet; 'quickask config set-key' creates it\n",
			DimStyle.Render("Note:"))
	}
	return nil
}

// handleConfigSetKey stores the key in the config file. Only the file's own
// values are rewritten; environment overrides are not persisted.
func handleConfigSetKey(env *Env, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		if !env.StdinTTY {
			return &UsageError{Message: "no key provided\nUsage: quickask config set-key <KEY>"}
		}
		line := liner.NewLiner()
		entered, err := line.PasswordPrompt("OpenAI API key: ")
		line.Close()
		if err != nil {
			return NewCommandError("config", "set-key", "could not read key", err)
		}
		key = strings.TrimSpace(entered)
		if key == "" {
			return &UsageError{Message: "no key provided"}
		}
	}

	cfg, err := loadFileConfig()
	if err != nil {
		return NewCommandError("config", "set-key", "could not read existing config", err)
	}
	cfg.Cloud.OpenAIKey = key

	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set-key", "could not save config", err)
	}
	if err := config.ReloadGlobal(); err != nil {
		env.logger().Warn("config reload after set-key failed", zap.Error(err))
	}

	fmt.Fprintf(env.Stdout, "%s cloud.openai_key = sha256:%s\n",
		SuccessStyle.Render("[OK]"), config.Fingerprint(key))
	fmt.Fprintf(env.Stdout, "Config file: %s\n", configPath())
	if os.Getenv(config.APIKeyEnv) != "" {
		fmt.Fprintf(env.Stdout, "%s %s is set and takes precedence over the config file\n",
			WarningStyle.Render("[!]"), config.APIKeyEnv)
	}
	return nil
}

// loadFileConfig reads the on-disk config without environment overrides.
func loadFileConfig() (*config.Config, error) {
	cfg := config.Default()
	if path, err := config.ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return cfg, config.LoadTOML(cfg, path)
		}
	}
	if path, err := config.ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return cfg, config.LoadJSON(cfg, path)
		}
	}
	return cfg, nil
}
