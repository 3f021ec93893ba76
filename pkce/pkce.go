// Package pkce generates PKCE code verifiers and derives their S256 challenges.
package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/guireq/libreria-java-books/oauthmodel"
	"golang.org/x/oauth2"
)

// VerifierBytes is the number of random bytes behind a verifier. 32 bytes
// encode to a 43 character verifier, the minimum RFC 7636 allows.
const VerifierBytes = 32

// Pair is a verifier together with the challenge sent on the authorization request.
type Pair struct {
	Verifier  string
	Challenge string
	Method    oauthmodel.CodeMethodType
}

// GenerateVerifier returns a fresh verifier read from crypto/rand.
func GenerateVerifier() (string, error) {
	return GenerateVerifierFrom(rand.Reader)
}

// GenerateVerifierFrom returns a verifier read from r.
func GenerateVerifierFrom(r io.Reader) (string, error) {
	b := make([]byte, VerifierBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("[pkce GenerateVerifier] random source: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeriveChallenge returns BASE64URL(SHA256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// Generate returns a new verifier and its S256 challenge.
func Generate() (*Pair, error) {
	return GenerateFrom(rand.Reader)
}

// GenerateFrom is Generate with an explicit random source.
func GenerateFrom(r io.Reader) (*Pair, error) {
	v, err := GenerateVerifierFrom(r)
	if err != nil {
		return nil, err
	}
	return &Pair{
		Verifier:  v,
		Challenge: DeriveChallenge(v),
		Method:    oauthmodel.CodeMethodTypeS256,
	}, nil
}
