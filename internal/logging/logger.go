// Package logging defines the structured-logging interface shared by the
// Glytch client packages. The default implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger. Args are key-value pairs:
//
//	log.Debug(ctx, "schema fallback", "op", "ListGlytches", "error", err)
//
// Library packages log schema fallbacks and signing failures at Debug and
// degraded results at Warn; only the CLI logs at Error.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes args.
	With(args ...any) Logger
}
