package oauthmodel

import (
	"math"
	"time"

	"github.com/guireq/libreria-java-books/internal/utils"
)

// TokenResponse represents the token proxy's response to an exchange or refresh.
// It mirrors the RFC 6749 token endpoint response that the proxy relays.
type TokenResponse struct {
	// AccessToken is the bearer credential used to access protected resources.
	// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	// Optional: nil when the server did not issue or rotate one
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	// Usage: The client computes an absolute expiry as issuance time + ExpiresIn
	ExpiresIn int64 `json:"expires_in"`

	// TokenType indicates how to use the access token.
	// Example: "Bearer"
	TokenType string `json:"token_type,omitempty"`

	// Scope indicates the access token's granted permissions.
	// Example: "libros.read libros.write"
	Scope string `json:"scope,omitempty"`
}

// maxExpiresIn is the largest lifetime in seconds a time.Duration can hold.
const maxExpiresIn = int64(math.MaxInt64 / int64(time.Second))

// ExpiresAt converts the relative lifetime into an absolute instant. The
// lifetime is clamped to [0, maxExpiresIn] seconds.
func (t *TokenResponse) ExpiresAt(issuedAt time.Time) time.Time {
	seconds := min(max(t.ExpiresIn, 0), maxExpiresIn)
	return issuedAt.Add(time.Duration(seconds) * time.Second)
}

// GetRefreshToken returns the refresh token, or "" when absent.
func (t *TokenResponse) GetRefreshToken() string {
	return utils.Value(t.RefreshToken)
}

// ErrorResponse is the JSON body returned by the token proxy on failure.
type ErrorResponse struct {
	// Error is a short machine readable code.
	// Example: "invalid_request", "token_exchange_failed", "refresh_failed"
	Error string `json:"error"`

	// Message is a human readable description shown to the user.
	// Example: "Authorization code is required"
	Message string `json:"message,omitempty"`
}
