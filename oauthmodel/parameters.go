package oauthmodel

import (
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// AuthorizePath is the authorization endpoint path on the authorization server.
const AuthorizePath = "/oauth2/authorize"

// AuthorizationParameters represents the query parameters sent to the
// authorization endpoint when a login is initiated.
type AuthorizationParameters struct {
	// AuthServer is the base URL of the authorization server.
	// Example: "http://localhost:9000"
	AuthServer string

	// ClientID identifies the client making the request.
	// Required: Yes
	// Example: "web-client"
	ClientID string

	// RedirectURI is where the authorization server sends the user after authorization.
	// Required: Yes
	// Example: "http://localhost:3000/callback"
	RedirectURI string

	// Scopes is the list of permissions requested by the client, sent space separated.
	// Example: ["libros.read", "libros.write"]
	Scopes []string

	// State is an opaque value used to maintain state between request and callback.
	// Example: "xyz"
	// Security: Compared with the callback's state parameter
	State string

	// CodeChallenge is the PKCE code challenge derived from the code verifier.
	// Required: Yes
	// Example: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	CodeChallenge string

	// CodeChallengeMethod is the method used to derive the code challenge.
	// Example: "S256"
	CodeChallengeMethod CodeMethodType
}

// Validate checks the parameters required to build an authorization URL.
func (p *AuthorizationParameters) Validate() error {
	if _, err := url.ParseRequestURI(p.AuthServer); err != nil {
		return ErrInvalidAuthorizationServer
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrInvalidClientID
	}
	if _, err := url.ParseRequestURI(p.RedirectURI); err != nil {
		return ErrInvalidRedirectUri
	}
	if p.CodeChallenge == "" {
		return ErrInvalidCodeChallenge
	}
	if p.CodeChallengeMethod != "" && p.CodeChallengeMethod != CodeMethodTypeS256 {
		return ErrInvalidCodeChallengeMethod
	}
	return nil
}

// OAuth2Config returns the x/oauth2 configuration for these parameters. The
// token endpoint is left empty: tokens are obtained through the proxy.
func (p *AuthorizationParameters) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    p.ClientID,
		RedirectURL: p.RedirectURI,
		Scopes:      p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL: strings.TrimRight(p.AuthServer, "/") + AuthorizePath,
		},
	}
}

// URL builds the authorization URL:
// {authServer}/oauth2/authorize?response_type=code&client_id=..&redirect_uri=..
// &scope=..&state=..&code_challenge=..&code_challenge_method=S256
func (p *AuthorizationParameters) URL() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p.OAuth2Config().AuthCodeURL(p.State,
		oauth2.SetAuthURLParam("code_challenge_method", string(CodeMethodTypeS256)),
		oauth2.SetAuthURLParam("code_challenge", p.CodeChallenge),
	), nil
}
