package errors

import (
	"errors"
	"fmt"
)

// Common error types for the PKCE login client and its token proxy
var (
	// Login flow errors
	ErrProtocolViolation   = errors.New("state parameter mismatch")
	ErrMissingPendingLogin = errors.New("no pending login: code verifier not found")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrMissingParameters   = errors.New("missing_parameters")

	// Token proxy errors
	ErrExchangeFailed = errors.New("token exchange failed")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrNoRefreshToken = errors.New("no refresh token held")

	// Request errors
	ErrAuthenticationRequired = errors.New("authentication required")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
