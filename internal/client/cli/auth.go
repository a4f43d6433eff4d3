package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glytch/internal/client/schemacompat"
	"github.com/dmitrijs2005/glytch/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var (
	errNotLoggedIn     = errors.New("not logged in, use login first")
	errAlreadyLoggedIn = errors.New("already logged in, use logout first")
	errUsernameTaken   = errors.New("username is already taken")
)

// Register prompts for an email, a username and a password and creates the
// account. When the backend requires email confirmation no session is
// returned and the user is told to confirm first.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	free, err := a.auth.IsUsernameAvailable(ctx, username)
	if err != nil {
		return err
	}
	if !free {
		return errUsernameTaken
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	res, err := a.auth.SignUp(ctx, email, string(password), username)
	if err != nil {
		return err
	}
	if res == nil || res.Session == nil {
		fmt.Fprintln(a.out, "Account created. Confirm your email, then log in.")
		return nil
	}
	fmt.Fprintln(a.out, "Account created. You can log in now.")
	return nil
}

// Login signs in and claims the account's single-session lock. When another
// session holds the lock the user is asked whether to take it over; a
// declined takeover leaves the app signed out.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return errAlreadyLoggedIn
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	session, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		return err
	}

	sessionID := a.auth.NewSessionID()
	err = a.auth.ClaimSingleSessionLock(ctx, session.AccessToken, sessionID, false)
	if err != nil && schemacompat.SingleSessionConflict(err.Error()) {
		takeover, aerr := confirm(a.reader, "This account is active in another session. Take over?", a.out)
		if aerr != nil {
			return aerr
		}
		if !takeover {
			fmt.Fprintln(a.out, "Login cancelled.")
			return nil
		}
		err = a.auth.ClaimSingleSessionLock(ctx, session.AccessToken, sessionID, true)
	}
	if err != nil {
		return err
	}

	a.session, a.sessionID = session, sessionID
	a.media.ClearAttachmentCache()
	a.log.Info(ctx, "signed in", "user_id", session.User.ID)
	fmt.Fprintf(a.out, "Signed in as %s\n", a.displayName())
	return nil
}

// Logout releases the session lock and forgets the session together with
// every cached attachment URL. A failed release is logged and does not keep
// the user signed in.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if err := a.auth.ReleaseSingleSessionLock(ctx, a.accessToken(), a.sessionID); err != nil {
		a.log.Warn(ctx, "release session lock", "error", err)
	}
	a.session, a.sessionID = nil, ""
	a.media.ClearAttachmentCache()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI prints the signed-in user's profile.
func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.freshSession(ctx); err != nil {
		return err
	}
	p, err := a.profiles.GetMyProfile(ctx, a.accessToken(), a.userID())
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: no profile for user %s", common.ErrUnexpectedResponse, a.userID())
	}
	fmt.Fprintf(a.out, "%s (@%s)\n", p.DisplayName, p.Username)
	fmt.Fprintf(a.out, "id: %s\n", p.UserID)
	if p.PresenceStatus != nil {
		fmt.Fprintf(a.out, "presence: %s\n", *p.PresenceStatus)
	}
	if p.CurrentGame != nil && *p.CurrentGame != "" {
		fmt.Fprintf(a.out, "playing: %s\n", *p.CurrentGame)
	}
	return nil
}
