// Package apiclient performs authenticated calls against the books API,
// refreshing and retrying once when the server rejects the token.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/guireq/libreria-java-books/instrumentation"
	autherrors "github.com/guireq/libreria-java-books/internal/errors"
	"github.com/rs/zerolog/log"
)

// ErrAuthenticationRequired is returned when no valid token can be obtained.
var ErrAuthenticationRequired = autherrors.ErrAuthenticationRequired

// Tokens is the part of the token manager the client depends on.
type Tokens interface {
	GetValidAccessToken(ctx context.Context) (string, error)
	// RefreshIfStale refreshes unless the held token already moved on from rejected.
	RefreshIfStale(ctx context.Context, rejected string) bool
	Logout(ctx context.Context) error
}

// RequestOptions describes the request sent to an endpoint. Body is kept as
// bytes so a retry sends exactly the same payload.
type RequestOptions struct {
	Method string // defaults to GET
	Header http.Header
	Body   []byte
}

type Client struct {
	baseURL    string
	tokens     Tokens
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

func New(baseURL string, tokens Tokens, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = instrumentation.NewNoop()
	}
	return c
}

type attempt int

const (
	attemptInitial attempt = iota
	attemptRetried
)

// Do sends the request to baseURL+endpoint with a bearer token. A 401 leads
// to one refresh and one retry whose response is returned as-is. If the
// refresh fails the manager is logged out and ErrAuthenticationRequired is
// returned. Other statuses are returned unmodified.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error) {
	accessToken, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Do] %w: %w", ErrAuthenticationRequired, err)
	}

	requestID := uuid.NewString()
	state := attemptInitial
	for {
		resp, err := c.send(ctx, endpoint, opts, accessToken, requestID)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized || state == attemptRetried {
			return resp, nil
		}

		// rejected on the first attempt: refresh, then retry once
		drain(resp)
		if !c.tokens.RefreshIfStale(ctx, accessToken) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Str("endpoint", endpoint).Msg("token rejected and refresh failed, logging out")
			c.metrics.RecordForcedLogout(ctx)
			if err := c.tokens.Logout(context.WithoutCancel(ctx)); err != nil {
				log.Err(err).Msg("logout after failed refresh")
			}
			return nil, fmt.Errorf("[apiclient Do] %w", ErrAuthenticationRequired)
		}
		accessToken, err = c.tokens.GetValidAccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("[apiclient Do] %w: %w", ErrAuthenticationRequired, err)
		}
		c.metrics.RecordRetry(ctx)
		state = attemptRetried
	}
}

func (c *Client) send(ctx context.Context, endpoint string, opts RequestOptions, accessToken, requestID string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Do] build request: %w", err)
	}
	for name, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Do] %s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
}
