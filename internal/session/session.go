// Package session holds the explicit authentication context of the client:
// the access token and display name, plus the persistence boundary they are
// restored from at startup.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredentials is returned by a Store that holds nothing.
var ErrNoCredentials = errors.New("no stored credentials")

// Session is the authentication context passed to every operation that needs it.
// The zero value is an anonymous session.
type Session struct {
	AccessToken string
	Username    string
	ExpiresAt   time.Time // zero when the token carries no exp claim
}

// Anonymous returns a session without credentials.
func Anonymous() Session {
	return Session{}
}

// FromToken builds a session from an access token. The token is inspected,
// not verified: only the backend can verify it, the client just reads exp.
func FromToken(accessToken, username string) Session {
	s := Session{AccessToken: accessToken, Username: username}
	if accessToken == "" {
		return s
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		// opaque token, treat as non-expiring
		return s
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Expired reports whether the token's exp claim lies before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Credentials is the persisted form of a session.
type Credentials struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Store persists credentials across process runs.
type Store interface {
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// Restore loads persisted credentials and turns them into a session. Missing or
// expired credentials restore as anonymous; only storage failures are returned.
func Restore(store Store, now time.Time) (Session, error) {
	creds, err := store.Load()
	if errors.Is(err, ErrNoCredentials) {
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), err
	}
	if creds == nil || creds.AccessToken == "" {
		return Anonymous(), nil
	}

	s := FromToken(creds.AccessToken, creds.Username)
	if s.Expired(now) {
		return Anonymous(), nil
	}
	return s, nil
}
