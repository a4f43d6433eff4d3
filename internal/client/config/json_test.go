package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	t.Run("loads JSON from flags", func(t *testing.T) {
		path := writeTempJSON(t, "", "flag.json", map[string]any{
			"api_base_url":           "https://www.example.com",
			"signed_url_failure_ttl": "10s",
			"signed_url_ttl":         int64(2 * time.Hour),
		})

		cfg := &Config{}
		require.NoError(t, parseFile(cfg, []string{"-config", path}))

		assert.Equal(t, "https://www.example.com", cfg.APIBaseURL)
		assert.Equal(t, 10*time.Second, cfg.SignedURLFailureTTL)
		assert.Equal(t, 2*time.Hour, cfg.SignedURLTTL)
	})

	t.Run("JSON with comments and trailing commas", func(t *testing.T) {
		path := writeTempFile(t, "cfg.jsonc", `{
			// backend
			"api_base_url": "https://c.example.com", /* storage */
			"storage_base_url": "https://s.example.com",
		}`)

		cfg := &Config{}
		require.NoError(t, parseFile(cfg, []string{"-c", path}))
		assert.Equal(t, "https://c.example.com", cfg.APIBaseURL)
		assert.Equal(t, "https://s.example.com", cfg.StorageBaseURL)
	})

	t.Run("TOML by extension", func(t *testing.T) {
		path := writeTempFile(t, "cfg.toml", `
api_base_url = "https://t.example.com"
message_bucket = "chat-media"
production = true
signed_url_refresh_buffer = "45s"
`)

		cfg := &Config{}
		require.NoError(t, parseFile(cfg, []string{"-c", path}))
		assert.Equal(t, "https://t.example.com", cfg.APIBaseURL)
		assert.Equal(t, "chat-media", cfg.MessageBucket)
		assert.True(t, cfg.Production)
		assert.Equal(t, 45*time.Second, cfg.SignedURLRefreshBuffer)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{APIBaseURL: "https://defaults", SignedURLTTL: 42 * time.Second}
		require.NoError(t, parseFile(cfg, nil))

		assert.Equal(t, "https://defaults", cfg.APIBaseURL)
		assert.Equal(t, 42*time.Second, cfg.SignedURLTTL)
	})

	t.Run("absent keys keep earlier values", func(t *testing.T) {
		path := writeTempJSON(t, "", "", map[string]any{"log_level": "debug"})
		cfg := &Config{MessageBucket: "message-media"}
		require.NoError(t, parseFile(cfg, []string{"-c", path}))
		assert.Equal(t, "message-media", cfg.MessageBucket)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := writeTempFile(t, "bad.json", `{ this is not valid json`)
		require.Error(t, parseFile(&Config{}, []string{"-config", bad}))
	})
}
