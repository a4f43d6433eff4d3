package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/flagx"
	"github.com/dmitrijs2005/glytch/internal/timex"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
)

// FileConfig is a DTO used exclusively for decoding config files. Pointer
// fields distinguish "absent" from "empty" so a file only overrides what it
// names.
type FileConfig struct {
	APIBaseURL             *string         `json:"api_base_url" toml:"api_base_url"`
	StorageBaseURL         *string         `json:"storage_base_url" toml:"storage_base_url"`
	ProfileBucket          *string         `json:"profile_bucket" toml:"profile_bucket"`
	GlytchBucket           *string         `json:"glytch_bucket" toml:"glytch_bucket"`
	MessageBucket          *string         `json:"message_bucket" toml:"message_bucket"`
	Production             *bool           `json:"production" toml:"production"`
	RequestTimeout         *timex.Duration `json:"request_timeout" toml:"request_timeout"`
	SignedURLTTL           *timex.Duration `json:"signed_url_ttl" toml:"signed_url_ttl"`
	SignedURLRefreshBuffer *timex.Duration `json:"signed_url_refresh_buffer" toml:"signed_url_refresh_buffer"`
	SignedURLFailureTTL    *timex.Duration `json:"signed_url_failure_ttl" toml:"signed_url_failure_ttl"`
	LogLevel               *string         `json:"log_level" toml:"log_level"`
}

// parseFile overlays cfg with values from the file named by -c/-config.
// No flag means nothing to load.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(jsonc.ToJSON(data), &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.StorageBaseURL, fc.StorageBaseURL)
	setString(&cfg.ProfileBucket, fc.ProfileBucket)
	setString(&cfg.GlytchBucket, fc.GlytchBucket)
	setString(&cfg.MessageBucket, fc.MessageBucket)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.Production != nil {
		cfg.Production = *fc.Production
	}
	setDuration(&cfg.RequestTimeout, fc.RequestTimeout)
	setDuration(&cfg.SignedURLTTL, fc.SignedURLTTL)
	setDuration(&cfg.SignedURLRefreshBuffer, fc.SignedURLRefreshBuffer)
	setDuration(&cfg.SignedURLFailureTTL, fc.SignedURLFailureTTL)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
