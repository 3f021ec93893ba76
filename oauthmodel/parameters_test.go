package oauthmodel_test

import (
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/guireq/libreria-java-books/internal/utils"
	"github.com/guireq/libreria-java-books/oauthmodel"
	"github.com/stretchr/testify/require"
)

func validParameters() oauthmodel.AuthorizationParameters {
	return oauthmodel.AuthorizationParameters{
		AuthServer:          "http://localhost:9000/",
		ClientID:            "web-client",
		RedirectURI:         "http://localhost:3000/callback",
		Scopes:              []string{"libros.read", "libros.write"},
		State:               "xyz",
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}
}

func TestAuthorizationParameters_URL(t *testing.T) {
	p := validParameters()
	raw, err := p.URL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "localhost:9000", u.Host)
	require.Equal(t, "/oauth2/authorize", u.Path)

	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "web-client", q.Get("client_id"))
	require.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	require.Equal(t, "libros.read libros.write", q.Get("scope"))
	require.Equal(t, "xyz", q.Get("state"))
	require.Equal(t, p.CodeChallenge, q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestAuthorizationParameters_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *oauthmodel.AuthorizationParameters)
		err    error
	}{
		{"missing auth server", func(p *oauthmodel.AuthorizationParameters) { p.AuthServer = "" }, oauthmodel.ErrInvalidAuthorizationServer},
		{"missing client id", func(p *oauthmodel.AuthorizationParameters) { p.ClientID = " " }, oauthmodel.ErrInvalidClientID},
		{"bad redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "callback" }, oauthmodel.ErrInvalidRedirectUri},
		{"missing challenge", func(p *oauthmodel.AuthorizationParameters) { p.CodeChallenge = "" }, oauthmodel.ErrInvalidCodeChallenge},
		{"plain method", func(p *oauthmodel.AuthorizationParameters) { p.CodeChallengeMethod = "plain" }, oauthmodel.ErrInvalidCodeChallengeMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParameters()
			tt.modify(&p)
			_, err := p.URL()
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTokenResponse(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := oauthmodel.TokenResponse{AccessToken: "A", ExpiresIn: 3600}
	require.Equal(t, issued.Add(time.Hour), r.ExpiresAt(issued))
	require.Equal(t, "", r.GetRefreshToken())

	r.RefreshToken = utils.Ptr("R")
	require.Equal(t, "R", r.GetRefreshToken())
}

func TestTokenResponse_ExpiresAtClamped(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	huge := oauthmodel.TokenResponse{ExpiresIn: math.MaxInt64}
	require.True(t, huge.ExpiresAt(issued).After(issued.Add(100*365*24*time.Hour)))

	overflowing := oauthmodel.TokenResponse{ExpiresIn: 10_000_000_000}
	require.True(t, overflowing.ExpiresAt(issued).After(issued))

	negative := oauthmodel.TokenResponse{ExpiresIn: -30}
	require.Equal(t, issued, negative.ExpiresAt(issued))
}
