// Package instrumentation provides OpenTelemetry counters for the login flow,
// token refreshes and the token proxy.
package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guireq/libreria-java-books"

// Result values recorded on the "result" attribute.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds all metric instruments
type Metrics struct {
	// Client Flow Metrics
	LoginStarted      metric.Int64Counter
	CallbackProcessed metric.Int64Counter
	TokenRefreshed    metric.Int64Counter
	ForcedLogout      metric.Int64Counter
	RequestRetried    metric.Int64Counter

	// Proxy Metrics
	ProxyRequestsTotal metric.Int64Counter
	RateLimitExceeded  metric.Int64Counter
}

// New creates the instruments on provider. A nil provider yields no-op instruments.
func New(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := &Metrics{}
	var err error

	m.LoginStarted, err = meter.Int64Counter(
		"auth.login.started",
		metric.WithDescription("Number of PKCE login flows started"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.started counter: %w", err)
	}

	m.CallbackProcessed, err = meter.Int64Counter(
		"auth.callback.processed",
		metric.WithDescription("Number of authorization callbacks handled"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create callback.processed counter: %w", err)
	}

	m.TokenRefreshed, err = meter.Int64Counter(
		"auth.token.refreshed",
		metric.WithDescription("Number of refresh calls made to the token proxy"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.refreshed counter: %w", err)
	}

	m.ForcedLogout, err = meter.Int64Counter(
		"auth.logout.forced",
		metric.WithDescription("Number of logouts forced by an unrecoverable refresh failure"),
		metric.WithUnit("{logout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logout.forced counter: %w", err)
	}

	m.RequestRetried, err = meter.Int64Counter(
		"auth.request.retried",
		metric.WithDescription("Number of authenticated requests re-sent after a 401"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request.retried counter: %w", err)
	}

	m.ProxyRequestsTotal, err = meter.Int64Counter(
		"auth.proxy.requests.total",
		metric.WithDescription("Number of token proxy requests by endpoint and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy.requests.total counter: %w", err)
	}

	m.RateLimitExceeded, err = meter.Int64Counter(
		"auth.proxy.rate_limit.exceeded",
		metric.WithDescription("Number of token proxy requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy.rate_limit.exceeded counter: %w", err)
	}

	return m, nil
}

// NewNoop returns instruments that record nothing.
func NewNoop() *Metrics {
	m, err := New(noop.NewMeterProvider())
	if err != nil {
		// the noop meter never fails
		panic(err)
	}
	return m
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

func (m *Metrics) RecordLoginStarted(ctx context.Context) {
	m.LoginStarted.Add(ctx, 1)
}

func (m *Metrics) RecordCallback(ctx context.Context, ok bool) {
	m.CallbackProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(ok))))
}

func (m *Metrics) RecordRefresh(ctx context.Context, ok bool) {
	m.TokenRefreshed.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(ok))))
}

func (m *Metrics) RecordForcedLogout(ctx context.Context) {
	m.ForcedLogout.Add(ctx, 1)
}

func (m *Metrics) RecordRetry(ctx context.Context) {
	m.RequestRetried.Add(ctx, 1)
}

func (m *Metrics) RecordProxyRequest(ctx context.Context, endpoint string, status int) {
	m.ProxyRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	))
}

func (m *Metrics) RecordRateLimitExceeded(ctx context.Context) {
	m.RateLimitExceeded.Add(ctx, 1)
}
