package pkce_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"regexp"
	"testing"

	"github.com/guireq/libreria-java-books/oauthmodel"
	"github.com/guireq/libreria-java-books/pkce"
	"github.com/stretchr/testify/require"
)

var base64URL = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestDeriveChallenge_RFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636
	got := pkce.DeriveChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", got)
}

func TestDeriveChallenge_Deterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		v, err := pkce.GenerateVerifier()
		require.NoError(t, err)
		require.Equal(t, pkce.DeriveChallenge(v), pkce.DeriveChallenge(v))
	}
}

func TestGenerateVerifier_Format(t *testing.T) {
	v, err := pkce.GenerateVerifier()
	require.NoError(t, err)
	require.Len(t, v, 43)
	require.Regexp(t, base64URL, v)

	raw, err := base64.RawURLEncoding.DecodeString(v)
	require.NoError(t, err)
	require.Len(t, raw, pkce.VerifierBytes)
}

func TestGenerateVerifier_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		v, err := pkce.GenerateVerifier()
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate verifier after %d draws", i)
		seen[v] = struct{}{}
	}
}

func TestGenerateVerifierFrom(t *testing.T) {
	t.Run("failing source", func(t *testing.T) {
		_, err := pkce.GenerateVerifierFrom(failingReader{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "entropy exhausted")
	})

	t.Run("short source", func(t *testing.T) {
		_, err := pkce.GenerateVerifierFrom(bytes.NewReader(make([]byte, 10)))
		require.Error(t, err)
	})

	t.Run("fixed source", func(t *testing.T) {
		v, err := pkce.GenerateVerifierFrom(bytes.NewReader(make([]byte, 32)))
		require.NoError(t, err)
		require.Equal(t, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", v)
	})
}

func TestGenerate(t *testing.T) {
	p, err := pkce.Generate()
	require.NoError(t, err)
	require.Equal(t, oauthmodel.CodeMethodTypeS256, p.Method)
	require.Equal(t, pkce.DeriveChallenge(p.Verifier), p.Challenge)
	require.NotEqual(t, p.Verifier, p.Challenge)

	_, err = pkce.GenerateFrom(failingReader{})
	require.Error(t, err)
}
