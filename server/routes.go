package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.TokenExchangeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware()...))

	// Preflight requests are answered by the CORS middleware
	s.RegisterRouteHandler("OPTIONS "+RouteAuthToken, ChainMiddleware(noContent, s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAuthRefresh, ChainMiddleware(noContent, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
