package oauthmodel

// ExchangeRequest is the JSON body the client posts to the proxy's
// /api/auth/token endpoint.
type ExchangeRequest struct {
	// Code is the authorization code received on the callback.
	// Required: Yes
	// Example: "SplxlOBeZQQYbYS6WxSbIA"
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string `json:"code"`

	// RedirectURI must equal the redirect_uri sent on the authorization request.
	// Example: "http://localhost:3000/callback"
	RedirectURI string `json:"redirectUri"`

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Validation: Server compares SHA256(code_verifier) with stored code_challenge
	CodeVerifier string `json:"codeVerifier"`
}

// RefreshRequest is the JSON body the client posts to the proxy's
// /api/auth/refresh endpoint.
type RefreshRequest struct {
	// RefreshToken is used to obtain new access tokens without re-authentication.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	RefreshToken string `json:"refreshToken"`
}
