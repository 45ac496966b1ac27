// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// isolateHome points the config directory at a fresh temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range []string{"QUICKASK_DEBUG", "QUICKASK_BASE_URL", "QUICKASK_TIMEOUT", "QUICKASK_RPM"} {
		t.Setenv(name, "")
	}
	return home
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		switch i % 3 {
		case 0:
			go func() {
				defer wg.Done()
				if Global() == nil {
					t.Error("Global() returned nil")
				}
			}()
		case 1:
			go func() {
				defer wg.Done()
				c := Default()
				c.Version = "concurrent-test"
				SetGlobal(c)
			}()
		case 2:
			go func() {
				defer wg.Done()
				_ = ReloadGlobal()
			}()
		}
	}
	wg.Wait()
}

// TestConfig_SetGlobalBeforeFirstAccess verifies SetGlobal is not clobbered by
// a lazy Load on the next Global() call.
func TestConfig_SetGlobalBeforeFirstAccess(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	c := Default()
	c.Version = "custom-version"
	SetGlobal(c)

	if got := Global().Version; got != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", got)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Cloud.BaseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, cfg.Cloud.BaseURL)
	}
	if cfg.Cloud.TimeoutSecs != 60 {
		t.Errorf("Expected 60s timeout, got %d", cfg.Cloud.TimeoutSecs)
	}
	if cfg.Debug.Enabled {
		t.Error("Debug should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"relative base url", func(c *Config) { c.Cloud.BaseURL = "api/v1" }, true},
		{"ftp base url", func(c *Config) { c.Cloud.BaseURL = "ftp://example.com" }, true},
		{"negative timeout", func(c *Config) { c.Cloud.TimeoutSecs = -1 }, true},
		{"negative rpm", func(c *Config) { c.Cloud.RequestsPerMinute = -5 }, true},
		{"bad dark mode", func(c *Config) { c.UI.DarkMode = "sometimes" }, true},
		{"upper-case dark mode", func(c *Config) { c.UI.DarkMode = "TRUE" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got := errs.Error(); got != "a: bad; b: worse" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("unexpected empty message %q", got)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cloud]
openai_key = "sk-from-file"
requests_per_minute = 12

[debug]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Cloud.OpenAIKey != "sk-from-file" {
		t.Errorf("expected key from file, got %q", cfg.Cloud.OpenAIKey)
	}
	if cfg.Cloud.RequestsPerMinute != 12 {
		t.Errorf("expected rpm 12, got %d", cfg.Cloud.RequestsPerMinute)
	}
	if !cfg.Debug.Enabled {
		t.Error("expected debug enabled")
	}
	// Unset fields keep defaults.
	if cfg.Cloud.BaseURL != DefaultBaseURL || cfg.UI.WordWrap != 80 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("expected permissions tightened to 0600, got %o", perm)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"cloud":{"timeout_secs":5}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Cloud.TimeoutSecs != 5 {
		t.Errorf("expected timeout 5, got %d", cfg.Cloud.TimeoutSecs)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cloud]\nbase_url = \"not a url\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("QUICKASK_DEBUG", "yes")
	t.Setenv("QUICKASK_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("QUICKASK_TIMEOUT", "7")
	t.Setenv("QUICKASK_RPM", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if !cfg.Debug.Enabled {
		t.Error("QUICKASK_DEBUG=yes should enable debug")
	}
	if cfg.Cloud.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("unexpected base url %s", cfg.Cloud.BaseURL)
	}
	if cfg.Cloud.TimeoutSecs != 7 {
		t.Errorf("unexpected timeout %d", cfg.Cloud.TimeoutSecs)
	}
	if cfg.Cloud.RequestsPerMinute != 0 {
		t.Errorf("unparseable rpm should be ignored, got %d", cfg.Cloud.RequestsPerMinute)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := isolateHome(t)

	cfg := Default()
	cfg.Cloud.OpenAIKey = "sk-saved"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(home, ".quickask", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Cloud.OpenAIKey != "sk-saved" {
		t.Errorf("expected saved key, got %q", loaded.Cloud.OpenAIKey)
	}
}
