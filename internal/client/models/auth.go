// Package models defines the records exchanged with the Glytch backend and
// the normalization applied to loosely typed rows.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when an access token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiration claim")

// UserMetadata is the free-form metadata stored with an auth user.
type UserMetadata struct {
	Name     string `json:"name,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Username string `json:"username,omitempty"`
}

// AuthUser is the identity returned by the auth service.
type AuthUser struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	UserMetadata *UserMetadata `json:"user_metadata,omitempty"`
}

// Username returns the best available handle for the user.
func (u AuthUser) Username() string {
	if u.UserMetadata == nil {
		return ""
	}
	if u.UserMetadata.Username != "" {
		return u.UserMetadata.Username
	}
	if u.UserMetadata.Name != "" {
		return u.UserMetadata.Name
	}
	return u.UserMetadata.FullName
}

// AuthSession is a signed-in session.
type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// SignUpResult is the sign-up response. Session is nil when the account
// needs email confirmation first.
type SignUpResult struct {
	Session *AuthSession `json:"session"`
	User    *AuthUser    `json:"user"`
}

// TokenExpiry reads the exp claim of an access token without verifying its
// signature. The client never holds the signing key; the value is only used
// to decide when to refresh.
func TokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
