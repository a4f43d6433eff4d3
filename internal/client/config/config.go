package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/common"
)

// Config holds runtime settings for the Glytch data-access client.
//
// Fields:
//   - APIBaseURL: backend origin that proxies auth, REST, RPC and storage.
//   - StorageBaseURL: public storage origin used to build absolute media URLs.
//   - ProfileBucket / GlytchBucket / MessageBucket: storage bucket names.
//   - Production: rejects loopback backends when set.
//   - RequestTimeout: per-request HTTP timeout.
//   - SignedURLTTL / SignedURLRefreshBuffer / SignedURLFailureTTL: attachment
//     cache lifetimes.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL             string
	StorageBaseURL         string
	ProfileBucket          string
	GlytchBucket           string
	MessageBucket          string
	Production             bool
	RequestTimeout         time.Duration
	SignedURLTTL           time.Duration
	SignedURLRefreshBuffer time.Duration
	SignedURLFailureTTL    time.Duration
	LogLevel               string
}

// LoadDefaults populates c with sensible defaults. The backend URL has no
// default and must be configured.
func (c *Config) LoadDefaults() {
	c.ProfileBucket = "profile-media"
	c.GlytchBucket = "glytch-media"
	c.MessageBucket = "message-media"
	c.RequestTimeout = 15 * time.Second
	c.SignedURLTTL = time.Hour
	c.SignedURLRefreshBuffer = 30 * time.Second
	c.SignedURLFailureTTL = 8 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present), the environment and command-line flags. Later
// sources take precedence over earlier ones. Base URLs are normalized; the
// result is not validated, call Validate before use.
func LoadConfig(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = NormalizeBaseURL(cfg.APIBaseURL)
	cfg.StorageBaseURL = strings.TrimRight(strings.TrimSpace(cfg.StorageBaseURL), "/")
	return cfg, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes and drops a
// trailing "/api" segment, so both "https://x" and "https://x/api/" address
// the same backend.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if len(trimmed) >= 4 && strings.EqualFold(trimmed[len(trimmed)-4:], "/api") {
		return trimmed[:len(trimmed)-4]
	}
	return trimmed
}

// Validate reports a common.ErrConfig when the backend URL is missing, or
// when a production build points at a loopback host.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%w: backend API URL is not set (GLYTCH_API_URL or -a)", common.ErrConfig)
	}
	if c.Production && IsLoopbackHost(c.APIBaseURL) {
		return fmt.Errorf("%w: backend API URL %q points at a local host in production", common.ErrConfig, c.APIBaseURL)
	}
	return nil
}

// IsLoopbackHost reports whether rawURL names localhost, 127.0.0.1 or ::1.
func IsLoopbackHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
