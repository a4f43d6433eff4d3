package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "https://api.example.com", "-s", "https://s.example.com", "-prod", "-log", "debug", "-t", "7"},
			expected: &Config{
				APIBaseURL:     "https://api.example.com",
				StorageBaseURL: "https://s.example.com",
				Production:     true,
				LogLevel:       "debug",
				RequestTimeout: 7 * time.Second,
			},
		},
		{
			name:     "bare -prod followed by positional value",
			args:     []string{"-prod", "login", "-a", "https://api.example.com"},
			expected: &Config{APIBaseURL: "https://api.example.com", Production: true},
		},
		{
			name:     "bare -prod between other flags",
			args:     []string{"-a", "https://api.example.com", "-prod", "stray", "-log", "warn", "extra"},
			expected: &Config{APIBaseURL: "https://api.example.com", Production: true, LogLevel: "warn"},
		},
		{
			name:     "unknown flags ignored",
			args:     []string{"-x", "1", "-a", "https://api.example.com"},
			expected: &Config{APIBaseURL: "https://api.example.com"},
		},
		{name: "incorrect timeout", args: []string{"-t", "abc"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseEnv_IgnoresBlankValues(t *testing.T) {
	cfg := &Config{MessageBucket: "message-media", SignedURLTTL: time.Hour}
	parseEnv(cfg, envMap(map[string]string{
		"GLYTCH_MESSAGE_BUCKET": "   ",
		"GLYTCH_SIGNED_URL_TTL": "not-a-duration",
		"GLYTCH_ENV":            "staging",
	}))
	assert.Equal(t, "message-media", cfg.MessageBucket)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.False(t, cfg.Production)
}
