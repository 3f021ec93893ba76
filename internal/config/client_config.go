package config

// ClientConfig holds the fixed OAuth2 client settings used by the login flow.
type ClientConfig interface {
	GetClientID() string
	GetAuthorizationServer() string
	GetAPIBaseURL() string
	GetRedirectURI() string
	GetScopes() []string
	GetState() string
}

const (
	clientIDVar            = "CLIENT_ID"
	authorizationServerVar = "AUTHORIZATION_SERVER"
	apiBaseURLVar          = "API_BASE_URL"
	redirectURIVar         = "REDIRECT_URI"
	scopesVar              = "SCOPES"
	stateVar               = "OAUTH_STATE"
)

var _ ClientConfig = EnvVars{}

func (e EnvVars) GetClientID() string {
	return e.get(clientIDVar, "web-client")
}

func (e EnvVars) GetAuthorizationServer() string {
	return e.get(authorizationServerVar, "http://localhost:9000")
}

// GetAPIBaseURL is the base URL of the backend proxy and the protected API.
func (e EnvVars) GetAPIBaseURL() string {
	return e.get(apiBaseURLVar, "http://localhost:9000")
}

func (e EnvVars) GetRedirectURI() string {
	return e.get(redirectURIVar, "http://localhost:3000/callback")
}

// GetScopes returns the requested scopes in order. SCOPES is space separated.
func (e EnvVars) GetScopes() []string {
	return e.getList(scopesVar, []string{"libros.read", "libros.write"}, " ")
}

func (e EnvVars) GetState() string {
	return e.get(stateVar, "xyz")
}

// Static is a ClientConfig with fixed values, for embedding and tests.
type Static struct {
	ClientID            string
	AuthorizationServer string
	APIBaseURL          string
	RedirectURI         string
	Scopes              []string
	State               string
}

var _ ClientConfig = Static{}

func (s Static) GetClientID() string            { return s.ClientID }
func (s Static) GetAuthorizationServer() string { return s.AuthorizationServer }
func (s Static) GetAPIBaseURL() string          { return s.APIBaseURL }
func (s Static) GetRedirectURI() string         { return s.RedirectURI }
func (s Static) GetScopes() []string            { return append([]string(nil), s.Scopes...) }
func (s Static) GetState() string               { return s.State }
