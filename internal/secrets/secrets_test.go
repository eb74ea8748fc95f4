// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "  sk-abc123  \n")
				writeFile(t, dir, "gemini-api-key", "gm_xyz789")
				return dir
			},
			want: map[string]string{
				"openai-api-key": "sk-abc123",
				"gemini-api-key": "gm_xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "openai-api-key", "sk-real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"openai-api-key": "sk-real",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDanglingLink(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "bad-key")))

	got, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestAPIKeyPrecedence(t *testing.T) {
	for _, p := range Providers {
		t.Setenv(EnvName(p), "")
		for _, name := range conventional[p] {
			t.Setenv(name, "")
		}
	}
	loaded := map[string]string{"openai-api-key": "from-file"}

	assert.Equal(t, "from-file", APIKey(loaded, "openai"))

	t.Setenv("OPENAI_API_KEY", "from-sdk-env")
	assert.Equal(t, "from-file", APIKey(loaded, "openai"), "secret file wins over the SDK variable")
	assert.Equal(t, "from-sdk-env", APIKey(nil, "openai"))

	t.Setenv("PAPERXAI_OPENAI_API_KEY", "from-paperxai-env")
	assert.Equal(t, "from-paperxai-env", APIKey(loaded, "openai"))

	t.Setenv("GOOGLE_API_KEY", "g-key")
	assert.Equal(t, map[string]string{
		"openai": "from-paperxai-env",
		"gemini": "g-key",
	}, Credentials(loaded))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
