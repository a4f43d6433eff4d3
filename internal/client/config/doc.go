// Package config loads runtime configuration for the Glytch client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .toml are decoded as TOML; anything else as JSON, with // and /* */
//     comments and trailing commas allowed.
//  3. Environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend API base URL
//	-s string   public storage base URL
//	-prod       production mode (rejects loopback backends)
//	-log string log level
//	-t int      request timeout (seconds)
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds (JSON only):
//
//	{
//	  "api_base_url": "https://glytch.example.com",
//	  "storage_base_url": "https://abc.supabase.co",
//	  "message_bucket": "message-media",
//	  "signed_url_ttl": "1h",
//	  "signed_url_failure_ttl": "8s"
//	}
package config
