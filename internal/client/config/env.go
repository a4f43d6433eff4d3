package config

import (
	"strings"
	"time"
)

// parseEnv overlays cfg with non-empty environment variables:
//
//	GLYTCH_API_URL, GLYTCH_STORAGE_URL, GLYTCH_PROFILE_BUCKET,
//	GLYTCH_GLYTCH_BUCKET, GLYTCH_MESSAGE_BUCKET, GLYTCH_LOG_LEVEL,
//	GLYTCH_ENV ("production" enables production mode),
//	GLYTCH_SIGNED_URL_TTL (Go duration syntax).
func parseEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	strVars := map[string]*string{
		"GLYTCH_API_URL":        &cfg.APIBaseURL,
		"GLYTCH_STORAGE_URL":    &cfg.StorageBaseURL,
		"GLYTCH_PROFILE_BUCKET": &cfg.ProfileBucket,
		"GLYTCH_GLYTCH_BUCKET":  &cfg.GlytchBucket,
		"GLYTCH_MESSAGE_BUCKET": &cfg.MessageBucket,
		"GLYTCH_LOG_LEVEL":      &cfg.LogLevel,
	}
	for name, dst := range strVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	if env := strings.TrimSpace(getenv("GLYTCH_ENV")); env != "" {
		cfg.Production = strings.EqualFold(env, "production") || strings.EqualFold(env, "prod")
	}
	if v := strings.TrimSpace(getenv("GLYTCH_SIGNED_URL_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SignedURLTTL = d
		}
	}
}
