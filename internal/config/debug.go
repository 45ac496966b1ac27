// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"strings"
)

// BuildDebug is injected at link time ("-X .../internal/config.BuildDebug=true").
// Empty means unset.
var BuildDebug string

// DevModeEnv is the development-mode switch used when BuildDebug is unset.
const DevModeEnv = "QUICKASK_DEV"

// ParseDebug interprets a DEBUG value. Set values are truthy only for
// "1", "true" or "yes" (case-insensitive, surrounding space ignored); an unset
// value yields fallback.
func ParseDebug(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// DebugEnabled resolves the process-wide debug flag once at startup. The
// result is passed explicitly into logging.New; nothing reads it globally.
//
// Precedence: BuildDebug, then the platform fallback (QUICKASK_DEV, the
// --debug flag or debug.enabled in the config file).
func DebugEnabled(cfg *Config, flag bool) bool {
	fallback := flag || ParseDebug(os.Getenv(DevModeEnv), false)
	if cfg != nil && cfg.Debug.Enabled {
		fallback = true
	}
	return ParseDebug(BuildDebug, fallback)
}
