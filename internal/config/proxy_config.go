package config

import (
	"fmt"
	"time"
)

// ProxyConfig configures the backend token proxy that exchanges codes with
// the Authorization Server on behalf of the browser client.
type ProxyConfig interface {
	GetPort() string
	GetClientSecret() string
	GetUseDiscovery() bool
	GetUpstreamTimeout() time.Duration
	GetRateLimit() (perSecond int, burst int)
}

const (
	portEnvVar         = "PORT"
	clientSecretVar    = "CLIENT_SECRET"
	useDiscoveryVar    = "OIDC_DISCOVERY"
	upstreamTimeoutVar = "UPSTREAM_TIMEOUT_SECONDS"
	rateLimitVar       = "RATE_LIMIT_PER_SECOND"
	rateBurstVar       = "RATE_LIMIT_BURST"
)

var _ ProxyConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.get(portEnvVar, "9000")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetClientSecret() string {
	return e.get(clientSecretVar, "web-secret")
}

// GetUseDiscovery enables OIDC discovery of the authorization and token
// endpoints instead of deriving them from the authorization server URL.
func (e EnvVars) GetUseDiscovery() bool {
	return e.getBool(useDiscoveryVar, false)
}

func (e EnvVars) GetUpstreamTimeout() time.Duration {
	return time.Duration(e.getInt(upstreamTimeoutVar, 10)) * time.Second
}

func (e EnvVars) GetRateLimit() (int, int) {
	return e.getInt(rateLimitVar, 5), e.getInt(rateBurstVar, 10)
}
