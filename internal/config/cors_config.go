package config

import (
	"strings"
)

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
	GetAllowCredentials() bool
}

const allowedOriginsVar = "ALLOWED_ORIGINS"

var _ CorsConfig = EnvVars{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins reads ALLOWED_ORIGINS as a comma separated list.
func (e EnvVars) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range e.getList(allowedOriginsVar, []string{"http://localhost:3000"}, ",") {
		origins[origin] = nullValue{}
	}
	return origins
}

func (EnvVars) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (EnvVars) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Request-ID"
}

func (e EnvVars) GetAllowCredentials() bool {
	return e.getBool("ALLOW_CREDENTIALS", true)
}
