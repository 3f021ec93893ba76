package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/guireq/libreria-java-books/oauthmodel"
	"github.com/guireq/libreria-java-books/server"
	"github.com/guireq/libreria-java-books/tokenproxy"
	"github.com/stretchr/testify/require"
)

type upstreamRequest struct {
	path   string
	user   string
	secret string
	form   url.Values
}

type upstream struct {
	mu       sync.Mutex
	requests []upstreamRequest
	status   int
	body     string
}

func (u *upstream) last(t *testing.T) upstreamRequest {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.requests)
	return u.requests[len(u.requests)-1]
}

func newUpstream(t *testing.T, status int, body string) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		user, secret, _ := r.BasicAuth()
		u.mu.Lock()
		u.requests = append(u.requests, upstreamRequest{path: r.URL.Path, user: user, secret: secret, form: r.PostForm})
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		w.Write([]byte(u.body))
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func newServer(t *testing.T, authServer string) *server.Server {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("AUTHORIZATION_SERVER", authServer)
	t.Setenv("CLIENT_ID", "web-client")
	t.Setenv("CLIENT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	if os.Getenv("RATE_LIMIT_PER_SECOND") == "" {
		t.Setenv("RATE_LIMIT_PER_SECOND", "0")
	}

	s, err := server.New(context.Background(), config.New())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func post(t *testing.T, s http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) oauthmodel.ErrorResponse {
	t.Helper()
	var resp oauthmodel.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRoutesMatchClientPaths(t *testing.T) {
	require.Equal(t, tokenproxy.TokenPath, server.RouteAuthToken)
	require.Equal(t, tokenproxy.RefreshPath, server.RouteAuthRefresh)
	require.Equal(t, oauthmodel.AuthorizePath, server.RouteOAuth2Authorize)
}

func TestTokenExchange(t *testing.T) {
	up, upSrv := newUpstream(t, http.StatusOK,
		`{"access_token":"A","refresh_token":"R","token_type":"Bearer","expires_in":3600,"scope":"libros.read libros.write"}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthToken, oauthmodel.ExchangeRequest{
		Code:         "abc",
		RedirectURI:  "http://localhost:3000/callback",
		CodeVerifier: "verifier-123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Header().Get(server.RequestIDHeader))

	var resp oauthmodel.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "A", resp.AccessToken)
	require.Equal(t, "R", resp.GetRefreshToken())
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "libros.read libros.write", resp.Scope)
	require.InDelta(t, 3600, resp.ExpiresIn, 1)

	got := up.last(t)
	require.Equal(t, server.RouteOAuth2Token, got.path)
	require.Equal(t, "web-client", got.user)
	require.Equal(t, "s3cret", got.secret)
	require.Equal(t, "authorization_code", got.form.Get("grant_type"))
	require.Equal(t, "abc", got.form.Get("code"))
	require.Equal(t, "http://localhost:3000/callback", got.form.Get("redirect_uri"))
	require.Equal(t, "verifier-123", got.form.Get("code_verifier"))
	require.Empty(t, got.form.Get("client_secret"), "secret travels in the Authorization header only")
}

func TestTokenExchange_MissingCode(t *testing.T) {
	up, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthToken, oauthmodel.ExchangeRequest{RedirectURI: "http://localhost:3000/callback"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "invalid_request", resp.Error)
	require.Equal(t, "Authorization code is required", resp.Message)
	require.Empty(t, up.requests)
}

func TestTokenExchange_MalformedBody(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthToken, strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeError(t, rec).Error)
}

func TestTokenExchange_UpstreamRejects(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"code expired"}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthToken, oauthmodel.ExchangeRequest{Code: "abc", CodeVerifier: "v"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "token_exchange_failed", resp.Error)
	require.Equal(t, "invalid_grant: code expired", resp.Message)
}

func TestTokenRefresh(t *testing.T) {
	up, upSrv := newUpstream(t, http.StatusOK,
		`{"access_token":"A2","refresh_token":"R2","token_type":"Bearer","expires_in":60}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthRefresh, oauthmodel.RefreshRequest{RefreshToken: "R"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp oauthmodel.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "A2", resp.AccessToken)
	require.Equal(t, "R2", resp.GetRefreshToken())
	require.InDelta(t, 60, resp.ExpiresIn, 1)

	got := up.last(t)
	require.Equal(t, "refresh_token", got.form.Get("grant_type"))
	require.Equal(t, "R", got.form.Get("refresh_token"))
	require.Equal(t, "web-client", got.user)
}

func TestTokenRefresh_MissingToken(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthRefresh, oauthmodel.RefreshRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "invalid_request", resp.Error)
	require.Equal(t, "Refresh token is required", resp.Message)
}

func TestTokenRefresh_UpstreamRejects(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusUnauthorized, `{"error":"invalid_grant"}`)
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthRefresh, oauthmodel.RefreshRequest{RefreshToken: "revoked"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "refresh_failed", resp.Error)
	require.Equal(t, "invalid_grant", resp.Message)
}

func TestMethodNotAllowed(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteAuthToken, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	s := newServer(t, upSrv.URL)

	req := httptest.NewRequest(http.MethodOptions, server.RouteAuthToken, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")

	req = httptest.NewRequest(http.MethodOptions, server.RouteAuthToken, nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRequestIDEchoed(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{"access_token":"A","token_type":"Bearer"}`)
	s := newServer(t, upSrv.URL)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthToken, strings.NewReader(`{"code":"abc"}`))
	req.Header.Set(server.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, "req-42", rec.Header().Get(server.RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, server.RouteAuthToken, strings.NewReader(`{"code":"abc"}`))
	req.Header.Set(server.RequestIDHeader, "bad id\r\ninjected")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.NotEqual(t, "bad id\r\ninjected", rec.Header().Get(server.RequestIDHeader))
	require.Len(t, rec.Header().Get(server.RequestIDHeader), 36)
}

func TestRateLimit(t *testing.T) {
	_, upSrv := newUpstream(t, http.StatusOK, `{}`)
	t.Setenv("RATE_LIMIT_PER_SECOND", "1")
	t.Setenv("RATE_LIMIT_BURST", "2")
	s := newServer(t, upSrv.URL)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := post(t, s, server.RouteAuthRefresh, oauthmodel.RefreshRequest{})
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			require.Equal(t, "1", rec.Header().Get("Retry-After"))
			require.Equal(t, "rate_limited", decodeError(t, rec).Error)
		}
	}
	require.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestDiscovery(t *testing.T) {
	var issuer string
	var tokenCalls int
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/authorize",
			"token_endpoint":         issuer + "/custom/token",
			"jwks_uri":               issuer + "/jwks",
		})
	})
	mux.HandleFunc("POST /custom/token", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokenCalls++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"D","token_type":"Bearer","expires_in":30}`))
	})
	upSrv := httptest.NewServer(mux)
	t.Cleanup(upSrv.Close)
	issuer = upSrv.URL

	t.Setenv("OIDC_DISCOVERY", "true")
	s := newServer(t, upSrv.URL)

	rec := post(t, s, server.RouteAuthToken, oauthmodel.ExchangeRequest{Code: "abc", CodeVerifier: "v"})
	require.Equal(t, http.StatusOK, rec.Code)
	mu.Lock()
	require.Equal(t, 1, tokenCalls)
	mu.Unlock()
}

func TestDiscovery_Unreachable(t *testing.T) {
	upSrv := httptest.NewServer(http.NotFoundHandler())
	upSrv.Close()

	t.Setenv("ENV", "TEST")
	t.Setenv("OIDC_DISCOVERY", "true")
	t.Setenv("AUTHORIZATION_SERVER", upSrv.URL)

	_, err := server.New(context.Background(), config.New())
	require.Error(t, err)
}
