// Package storage defines the key-value stores the token manager persists to.
package storage

import (
	"context"

	autherrors "github.com/guireq/libreria-java-books/internal/errors"
)

// Persisted key layout. The durable store holds the token set, the session
// store holds the pending PKCE verifier.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
	KeyCodeVerifier = "code_verifier"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = autherrors.ErrNotFound

// Store is a string key-value store. Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
