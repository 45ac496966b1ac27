// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// APIKeyEnv is the environment variable consulted for the OpenAI credential.
const APIKeyEnv = "OPENAI_API_KEY"

// BuildAPIKey is injected at link time:
//
//	go build -ldflags "-X github.com/jeranaias/quickask/internal/config.BuildAPIKey=sk-..."
var BuildAPIKey string

// KeySource is a single place a credential may come from.
type KeySource interface {
	Name() string
	Lookup() string
}

// BuildSource reads the link-time BuildAPIKey.
type BuildSource struct{}

func (BuildSource) Name() string   { return "build" }
func (BuildSource) Lookup() string { return BuildAPIKey }

// EnvSource reads a process environment variable.
type EnvSource string

func (e EnvSource) Name() string   { return "env:" + string(e) }
func (e EnvSource) Lookup() string { return os.Getenv(string(e)) }

// FileSource reads cloud.openai_key from an already loaded configuration.
// A nil Config falls back to Global() at lookup time, so a reload is picked up.
type FileSource struct {
	Config *Config
}

func (FileSource) Name() string { return "config" }

func (f FileSource) Lookup() string {
	cfg := f.Config
	if cfg == nil {
		cfg = Global()
	}
	if cfg == nil {
		return ""
	}
	return cfg.Cloud.OpenAIKey
}

// Resolution is the outcome of a successful key lookup.
type Resolution struct {
	Key    string
	Source string
}

// Fingerprint returns the first 8 hex chars of the key's SHA-256.
// The key itself must never be logged.
func (r Resolution) Fingerprint() string {
	return Fingerprint(r.Key)
}

// Fingerprint hashes a credential for display.
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// KeyResolver evaluates its sources in order; the first non-blank value wins.
type KeyResolver struct {
	sources []KeySource
}

// NewKeyResolver builds a resolver over the given sources, in precedence order.
func NewKeyResolver(sources ...KeySource) *KeyResolver {
	return &KeyResolver{sources: sources}
}

// DefaultKeyResolver checks, in order: the link-time value, OPENAI_API_KEY,
// and finally the config file.
func DefaultKeyResolver() *KeyResolver {
	return NewKeyResolver(BuildSource{}, EnvSource(APIKeyEnv), FileSource{})
}

// Resolve returns the first non-blank credential. Sources after the winner
// are not consulted.
func (r *KeyResolver) Resolve() (Resolution, bool) {
	if r == nil {
		return Resolution{}, false
	}
	for _, src := range r.sources {
		if src == nil {
			continue
		}
		if key := strings.TrimSpace(src.Lookup()); key != "" {
			return Resolution{Key: key, Source: src.Name()}, true
		}
	}
	return Resolution{}, false
}

// Key is Resolve without the source name; it satisfies openai.KeyFunc.
func (r *KeyResolver) Key() (string, bool) {
	res, ok := r.Resolve()
	return res.Key, ok
}

// Available reports whether any source currently yields a credential.
func (r *KeyResolver) Available() bool {
	_, ok := r.Resolve()
	return ok
}

// ResolveAPIKey resolves the credential with the default precedence.
func ResolveAPIKey() (string, bool) {
	return DefaultKeyResolver().Key()
}
