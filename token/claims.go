package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/guireq/libreria-java-books/internal/utils"
)

// Claims are the access token claims shown to the user. They are decoded
// without signature verification and must never drive an authorization
// decision; the resource server verifies the token.
type Claims struct {
	Subject    string    `json:"sub,omitempty"`
	Issuer     string    `json:"iss,omitempty"`
	Scopes     []string  `json:"scope,omitempty"`
	Roles      []string  `json:"roles,omitempty"`
	Categorias []string  `json:"categorias,omitempty"` // book categories the user may read
	Autores    []string  `json:"autores,omitempty"`    // authors the user may read
	ExpiresAt  time.Time `json:"exp,omitempty"`
}

// ParseClaims decodes a JWT access token's payload. Opaque tokens return an error.
func ParseClaims(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("[token ParseClaims] empty token")
	}

	unverifiedToken, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := unverifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	c := &Claims{
		Roles:      listClaim(mapClaims["roles"]),
		Categorias: listClaim(mapClaims["categorias"]),
		Autores:    listClaim(mapClaims["autores"]),
		Scopes:     listClaim(mapClaims["scope"]),
	}
	c.Subject, _ = mapClaims.GetSubject()
	c.Issuer, _ = mapClaims.GetIssuer()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// listClaim accepts a JSON array or a space separated string.
func listClaim(v any) []string {
	switch t := v.(type) {
	case []any:
		return utils.ToStringSlice(t)
	case string:
		return strings.Fields(t)
	default:
		return nil
	}
}
