// Package token owns the client's OAuth2 token lifecycle: PKCE login,
// callback handling, persistence, expiry tracking, refresh and logout.
package token

import (
	"time"

	autherrors "github.com/guireq/libreria-java-books/internal/errors"
)

var (
	ErrProtocolViolation      = autherrors.ErrProtocolViolation
	ErrMissingPendingLogin    = autherrors.ErrMissingPendingLogin
	ErrAuthorizationDenied    = autherrors.ErrAuthorizationDenied
	ErrMissingParameters      = autherrors.ErrMissingParameters
	ErrExchangeFailed         = autherrors.ErrExchangeFailed
	ErrRefreshFailed          = autherrors.ErrRefreshFailed
	ErrNoRefreshToken         = autherrors.ErrNoRefreshToken
	ErrAuthenticationRequired = autherrors.ErrAuthenticationRequired
)

// TokenSet is the access token, the optional refresh token and the absolute
// instant the access token stops being valid.
type TokenSet struct {
	AccessToken  string
	RefreshToken string // "" when the server issued none
	ExpiresAt    time.Time
}

// Expired reports whether the access token is unusable at now. An unknown
// expiry counts as expired.
func (t TokenSet) Expired(now time.Time) bool {
	return t.ExpiresAt.IsZero() || !now.Before(t.ExpiresAt)
}

func (t TokenSet) empty() bool {
	return t.AccessToken == ""
}

// State is the manager's position in the login lifecycle.
type State int

const (
	LoggedOut State = iota
	LoginPending
	LoggedIn
	Expired
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case LoginPending:
		return "login_pending"
	case LoggedIn:
		return "logged_in"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}
