package schemacompat

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/common"
)

// MigrationError reports that a write needs a newer backend schema.
type MigrationError struct {
	Message string
	Cause   error
}

func (e *MigrationError) Error() string {
	return e.Message
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// Is matches common.ErrMigrationRequired.
func (e *MigrationError) Is(target error) bool {
	return target == common.ErrMigrationRequired
}

// Fallback produces the result used in place of a failed primary request.
// cause is the matched *client.APIError.
type Fallback[T any] func(ctx context.Context, cause error) (T, error)

// Legacy retries with a reduced request the older schema understands.
func Legacy[T any](fn func(ctx context.Context) (T, error)) Fallback[T] {
	return func(ctx context.Context, _ error) (T, error) {
		return fn(ctx)
	}
}

// Default returns v.
func Default[T any](v T) Fallback[T] {
	return func(context.Context, error) (T, error) {
		return v, nil
	}
}

// RequireMigration fails with a *MigrationError carrying message.
func RequireMigration[T any](message string) Fallback[T] {
	return func(_ context.Context, cause error) (T, error) {
		var zero T
		return zero, &MigrationError{Message: message, Cause: cause}
	}
}

// Matches reports whether err is a backend error whose message satisfies
// match. Transport and configuration errors never match.
func Matches(err error, match Predicate) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return match(apiErr.Message)
}

// Do runs primary. A failure that Matches match is handed to fallback;
// any other failure is returned unchanged without a retry.
func Do[T any](ctx context.Context, primary func(ctx context.Context) (T, error), match Predicate, fallback Fallback[T]) (T, error) {
	res, err := primary(ctx)
	if err == nil || !Matches(err, match) {
		return res, err
	}
	return fallback(ctx, err)
}
