package schemacompat

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiErr(msg string) error {
	return &client.APIError{StatusCode: 400, Message: msg}
}

func TestDo_PrimarySuccess(t *testing.T) {
	called := false
	got, err := Do(context.Background(),
		func(context.Context) ([]int, error) { return []int{1}, nil },
		MissingProfileComments,
		Legacy(func(context.Context) ([]int, error) { called = true; return nil, nil }),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
	assert.False(t, called)
}

func TestDo_LegacyOnMatch(t *testing.T) {
	got, err := Do(context.Background(),
		func(context.Context) (string, error) { return "", apiErr(`column glytches.is_public does not exist`) },
		MissingGlytchDirectory,
		Legacy(func(context.Context) (string, error) { return "legacy", nil }),
	)
	require.NoError(t, err)
	assert.Equal(t, "legacy", got)
}

func TestDo_LegacyFailurePropagates(t *testing.T) {
	legacyErr := apiErr("legacy broke")
	_, err := Do(context.Background(),
		func(context.Context) (string, error) { return "", apiErr(`column glytches.is_public does not exist`) },
		MissingGlytchDirectory,
		Legacy(func(context.Context) (string, error) { return "", legacyErr }),
	)
	assert.Same(t, legacyErr, err)
}

func TestDo_DefaultOnMatch(t *testing.T) {
	got, err := Do(context.Background(),
		func(context.Context) ([]string, error) {
			return nil, apiErr(`relation "public.profile_comments" does not exist`)
		},
		MissingProfileComments,
		Default([]string{}),
	)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDo_RequireMigration(t *testing.T) {
	cause := apiErr(`relation "public.profile_comments" does not exist`)
	_, err := Do(context.Background(),
		func(context.Context) (int, error) { return 0, cause },
		MissingProfileComments,
		RequireMigration[int]("profile comments require the latest database migration"),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMigrationRequired)
	assert.Equal(t, "profile comments require the latest database migration", err.Error())

	var me *MigrationError
	require.True(t, errors.As(err, &me))
	assert.Same(t, cause, me.Cause)

	var ae *client.APIError
	assert.True(t, errors.As(err, &ae), "cause stays reachable")
}

func TestDo_NonMatchingErrorsUnchanged(t *testing.T) {
	tests := map[string]error{
		"unrelated api error":            apiErr("permission denied"),
		"transport error":                client.ErrUnavailable,
		"config error":                   common.ErrConfig,
		"plain error with matching text": errors.New(`relation "profile_comments" does not exist`),
	}
	for name, primaryErr := range tests {
		t.Run(name, func(t *testing.T) {
			called := false
			_, err := Do(context.Background(),
				func(context.Context) (int, error) { return 0, primaryErr },
				MissingProfileComments,
				func(context.Context, error) (int, error) { called = true; return 1, nil },
			)
			assert.Same(t, primaryErr, err)
			assert.False(t, called)
		})
	}
}

func TestMatches_WrappedAPIError(t *testing.T) {
	wrapped := errors.Join(errors.New("list comments"), apiErr(`profile_comments missing`))
	assert.True(t, Matches(wrapped, MissingProfileComments))
	assert.False(t, Matches(nil, MissingProfileComments))
}
