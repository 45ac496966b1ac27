// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and credential resolution for quickask.
//
// # Key Types
//
//   - Config: Main configuration structure (cloud, ui, debug sections)
//   - KeyResolver: Ordered credential sources, first non-blank value wins
//   - Watcher: fsnotify-based reload of the config file
//
// # Credential Precedence
//
// The OpenAI key is resolved at submission time from (in order):
//   - BuildAPIKey, injected with -ldflags -X
//   - the OPENAI_API_KEY environment variable
//   - cloud.openai_key in ~/.quickask/config.toml
//
// # Debug Flag
//
// BuildDebug ("1", "true" or "yes") wins when set; otherwise QUICKASK_DEV,
// the --debug flag and debug.enabled act as the development-mode fallback.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	key, ok := config.ResolveAPIKey()
package config
