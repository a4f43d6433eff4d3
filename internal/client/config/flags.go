package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/glytch/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend API base URL
//	-s string   public storage base URL
//	-prod       production mode
//	-log string log level
//	-t int      request timeout in seconds
//
// Args are filtered with flagx.FilterArgs first so flags owned by other
// components do not cause parse failures.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-s", "-log", "-t"}, "-prod")

	fs := flag.NewFlagSet("glytch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	fs.StringVar(&cfg.StorageBaseURL, "s", cfg.StorageBaseURL, "public storage base URL")
	fs.BoolVar(&cfg.Production, "prod", cfg.Production, "production mode")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(filtered); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
