// Package server is the backend token proxy: it performs the authorization
// code and refresh token grants against the Authorization Server using the
// confidential client secret, so that secret never reaches the browser.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/guireq/libreria-java-books/instrumentation"
	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	oauth   *oauth2.Config
	client  *http.Client // upstream Authorization Server client
	limiter *RateLimiter
	metrics *instrumentation.Metrics
	nowFunc func() time.Time
}

type ServerOption func(*Server)

func WithMetrics(m *instrumentation.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHTTPClient sets the client used to reach the Authorization Server.
func WithHTTPClient(c *http.Client) ServerOption {
	return func(s *Server) {
		s.client = c
	}
}

func WithNowFunc(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(ctx context.Context, config config.Config, options ...ServerOption) (*Server, error) {
	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: config.GetUpstreamTimeout()}
	}
	if s.metrics == nil {
		s.metrics = instrumentation.NewNoop()
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}

	endpoint, err := s.upstreamEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to resolve authorization server endpoints: %w", err)
	}
	s.oauth = &oauth2.Config{
		ClientID:     config.GetClientID(),
		ClientSecret: config.GetClientSecret(),
		Endpoint:     endpoint,
	}

	perSecond, burst := config.GetRateLimit()
	s.limiter = NewRateLimiter(perSecond, burst)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// upstreamEndpoint derives the token endpoint from the authorization server
// URL, or discovers it when OIDC discovery is enabled. Client credentials
// are always sent with HTTP Basic (client_secret_basic).
func (s *Server) upstreamEndpoint(ctx context.Context) (oauth2.Endpoint, error) {
	issuer := strings.TrimRight(s.config.GetAuthorizationServer(), "/")
	if !s.config.GetUseDiscovery() {
		return oauth2.Endpoint{
			AuthURL:   issuer + RouteOAuth2Authorize,
			TokenURL:  issuer + RouteOAuth2Token,
			AuthStyle: oauth2.AuthStyleInHeader,
		}, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, s.client), issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInHeader
	return endpoint, nil
}

// upstreamContext carries the upstream HTTP client into x/oauth2 calls.
func (s *Server) upstreamContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops background work started by New.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
