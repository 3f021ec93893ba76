package server

// Route path constants
const (
	// Token proxy routes called by the client
	RouteAuthToken   = "/api/auth/token"
	RouteAuthRefresh = "/api/auth/refresh"

	RouteHealth = "/healthz"

	// Authorization Server routes, relative to its base URL
	RouteOAuth2Authorize = "/oauth2/authorize"
	RouteOAuth2Token     = "/oauth2/token"
)
