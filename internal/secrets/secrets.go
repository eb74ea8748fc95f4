// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, gemini-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// Providers whose keys Credentials resolves.
var Providers = []string{"openai", "gemini", "anthropic"}

// conventional lists the environment variables each provider SDK reads on
// its own, consulted after the paperxai-specific sources.
var conventional = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyName returns the secret file name holding provider's API key.
func KeyName(provider string) string {
	return provider + "-api-key"
}

// EnvName returns the paperxai environment variable for provider's API key.
func EnvName(provider string) string {
	return "PAPERXAI_" + strings.ToUpper(provider) + "_API_KEY"
}

// APIKey resolves provider's key from PAPERXAI_<PROVIDER>_API_KEY, then the
// loaded secret files, then the provider's conventional variables.
func APIKey(loaded map[string]string, provider string) string {
	if v := strings.TrimSpace(os.Getenv(EnvName(provider))); v != "" {
		return v
	}
	if v, ok := loaded[KeyName(provider)]; ok {
		return v
	}
	for _, name := range conventional[provider] {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Credentials resolves the key of every known provider. Providers without a
// key are omitted.
func Credentials(loaded map[string]string) map[string]string {
	out := make(map[string]string, len(Providers))
	for _, p := range Providers {
		if v := APIKey(loaded, p); v != "" {
			out[p] = v
		}
	}
	return out
}
