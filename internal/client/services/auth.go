package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/glytch/internal/client/client"
	"github.com/dmitrijs2005/glytch/internal/client/models"
	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/logging"
	"github.com/google/uuid"
)

// refreshSkew is how long before expiry a session is refreshed.
const refreshSkew = time.Minute

// AuthService defines account and session operations.
//
// Contract:
//   - IsUsernameAvailable: check a handle before sign-up (no token needed).
//   - SignUp / SignIn / RefreshSession: password auth against the auth service.
//   - GetCurrentUser: resolve the identity behind an access token.
//   - ClaimSingleSessionLock: take the account's single-session lock; with
//     allowTakeover a conflicting lock is released and the claim retried once.
//   - ReleaseSingleSessionLock: drop the lock ("" releases whatever is held).
//   - EnsureFreshSession: refresh a session whose token is about to expire.
//   - NewSessionID: generate a key for the single-session lock.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	SignUp(ctx context.Context, email, password, username string) (*models.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	GetCurrentUser(ctx context.Context, accessToken string) (*models.AuthUser, error)
	ClaimSingleSessionLock(ctx context.Context, accessToken, sessionID string, allowTakeover bool) error
	ReleaseSingleSessionLock(ctx context.Context, accessToken, sessionID string) error
	EnsureFreshSession(ctx context.Context, session *models.AuthSession) (*models.AuthSession, bool, error)
	NewSessionID() string
}

type authService struct {
	base
	now func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client.
func NewAuthService(c client.Client, log logging.Logger) AuthService {
	return &authService{base: newBase(c, log), now: time.Now}
}

func (a *authService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var available bool
	err := client.RPC(ctx, a.client, "", "is_username_available",
		map[string]any{"p_username": strings.ToLower(username)}, &available)
	return available, err
}

// SignUp registers an account. The username is stored lower-cased as both
// the display name and the handle.
func (a *authService) SignUp(ctx context.Context, email, password, username string) (*models.SignUpResult, error) {
	handle := strings.ToLower(username)
	var res models.SignUpResult
	err := a.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/signup",
		Body: map[string]any{
			"email":    email,
			"password": password,
			"data":     map[string]string{"name": handle, "username": handle},
		},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *authService) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return a.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (a *authService) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	return a.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (a *authService) token(ctx context.Context, grant string, body any) (*models.AuthSession, error) {
	var s models.AuthSession
	err := a.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/token",
		Query:  query("grant_type", grant),
		Body:   body,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *authService) GetCurrentUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	var u models.AuthUser
	err := a.client.Do(ctx, client.Request{
		Method:      http.MethodGet,
		Path:        "/auth/v1/user",
		AccessToken: accessToken,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *authService) ClaimSingleSessionLock(ctx context.Context, accessToken, sessionID string, allowTakeover bool) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return invalidArg("session key is required")
	}
	params := map[string]any{"p_session_id": sessionID}

	err := client.RPC(ctx, a.client, accessToken, "claim_single_session_login", params, nil)
	if err == nil || !allowTakeover || !schemacompat.Matches(err, schemacompat.SingleSessionConflict) {
		return err
	}

	a.log.Info(ctx, "taking over single-session lock", "error", err)
	if err := a.ReleaseSingleSessionLock(ctx, accessToken, ""); err != nil {
		return fmt.Errorf("release stale session lock: %w", err)
	}
	return client.RPC(ctx, a.client, accessToken, "claim_single_session_login", params, nil)
}

func (a *authService) ReleaseSingleSessionLock(ctx context.Context, accessToken, sessionID string) error {
	return client.RPC(ctx, a.client, accessToken, "release_single_session_login",
		map[string]any{"p_session_id": nullable(strings.TrimSpace(sessionID))}, nil)
}

// EnsureFreshSession returns session unchanged while its access token is
// valid for longer than refreshSkew. Otherwise, or when the token cannot be
// parsed, it refreshes; the bool reports whether a refresh happened.
func (a *authService) EnsureFreshSession(ctx context.Context, session *models.AuthSession) (*models.AuthSession, bool, error) {
	if session == nil {
		return nil, false, invalidArg("no session")
	}
	exp, err := models.TokenExpiry(session.AccessToken)
	if err == nil && exp.Sub(a.now()) > refreshSkew {
		return session, false, nil
	}
	if session.RefreshToken == "" {
		return nil, false, invalidArg("session cannot be refreshed")
	}
	fresh, err := a.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		return nil, false, fmt.Errorf("refresh session: %w", err)
	}
	return fresh, true, nil
}

func (a *authService) NewSessionID() string {
	return uuid.NewString()
}
