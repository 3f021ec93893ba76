package token

import (
	"context"

	"github.com/guireq/libreria-java-books/oauthmodel"
	"golang.org/x/oauth2"
)

type managerTokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource exposes the manager as an oauth2.TokenSource. Each Token call
// goes through GetValidAccessToken, so expiry handling is unchanged.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, m: m}
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	access, err := s.m.GetValidAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   oauthmodel.TokenTypeBearer,
		Expiry:      s.m.Tokens().ExpiresAt,
	}, nil
}
