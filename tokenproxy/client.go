// Package tokenproxy talks to the backend proxy that performs the
// Authorization Server token exchange on the client's behalf.
package tokenproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/google/uuid"
	autherrors "github.com/guireq/libreria-java-books/internal/errors"
	"github.com/guireq/libreria-java-books/oauthmodel"
	"golang.org/x/net/publicsuffix"
)

const (
	TokenPath   = "/api/auth/token"
	RefreshPath = "/api/auth/refresh"

	// HeaderRequestID correlates client and proxy log lines.
	HeaderRequestID = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// StatusError is returned when the proxy answers with a non-success status.
// It unwraps to ErrExchangeFailed or ErrRefreshFailed.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	op         error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.op, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.op
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client. Its Jar is used as-is.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a proxy client for baseURL. The default HTTP client keeps
// a cookie jar so the proxy's cookies are sent back on every call.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("[tokenproxy NewClient] cookie jar: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Exchange trades an authorization code and its PKCE verifier for tokens.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*oauthmodel.TokenResponse, error) {
	body := oauthmodel.ExchangeRequest{
		Code:         code,
		RedirectURI:  redirectURI,
		CodeVerifier: codeVerifier,
	}
	return c.post(ctx, TokenPath, body, autherrors.ErrExchangeFailed)
}

// Refresh trades a refresh token for a new token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	return c.post(ctx, RefreshPath, oauthmodel.RefreshRequest{RefreshToken: refreshToken}, autherrors.ErrRefreshFailed)
}

func (c *Client) post(ctx context.Context, path string, payload any, op error) (*oauthmodel.TokenResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp, op)
	}

	var tr oauthmodel.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", op, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access_token", op)
	}
	return &tr, nil
}

// newStatusError takes the message from the body's "message" field when
// present, else the status text.
func newStatusError(resp *http.Response, op error) *StatusError {
	e := &StatusError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		op:         op,
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body oauthmodel.ErrorResponse
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Error
		if body.Message != "" {
			e.Message = body.Message
		}
	}
	return e
}
