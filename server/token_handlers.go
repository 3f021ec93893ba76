package server

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/guireq/libreria-java-books/internal/utils"
	"github.com/guireq/libreria-java-books/oauthmodel"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	errCodeInvalidRequest = "invalid_request"
	errCodeExchangeFailed = "token_exchange_failed"
	errCodeRefreshFailed  = "refresh_failed"
)

// TokenExchangeHandler exchanges an authorization code and PKCE verifier
// for tokens at the Authorization Server.
func (s *Server) TokenExchangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.ExchangeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, errCodeInvalidRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Code) == "" {
			writeError(w, http.StatusBadRequest, errCodeInvalidRequest, "Authorization code is required")
			return
		}

		log.Debug().
			Str("request_id", GetRequestID(r.Context())).
			Str("redirect_uri", req.RedirectURI).
			Bool("code_verifier", req.CodeVerifier != "").
			Msg("token exchange")

		opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("redirect_uri", req.RedirectURI)}
		if req.CodeVerifier != "" {
			opts = append(opts, oauth2.VerifierOption(req.CodeVerifier))
		}

		tok, err := s.oauth.Exchange(s.upstreamContext(r.Context()), req.Code, opts...)
		if err != nil {
			log.Err(err).Str("request_id", GetRequestID(r.Context())).Msg("token exchange failed")
			writeError(w, http.StatusBadRequest, errCodeExchangeFailed, upstreamMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, s.tokenResponse(tok))
	}
}

// TokenRefreshHandler performs the refresh_token grant.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RefreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, errCodeInvalidRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.RefreshToken) == "" {
			writeError(w, http.StatusBadRequest, errCodeInvalidRequest, "Refresh token is required")
			return
		}

		ts := s.oauth.TokenSource(s.upstreamContext(r.Context()), &oauth2.Token{RefreshToken: req.RefreshToken})
		tok, err := ts.Token()
		if err != nil {
			log.Err(err).Str("request_id", GetRequestID(r.Context())).Msg("token refresh failed")
			writeError(w, http.StatusBadRequest, errCodeRefreshFailed, upstreamMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, s.tokenResponse(tok))
	}
}

// tokenResponse converts the upstream token back to the wire shape, turning
// the absolute expiry into seconds from now.
func (s *Server) tokenResponse(tok *oauth2.Token) *oauthmodel.TokenResponse {
	resp := &oauthmodel.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
	}
	if tok.RefreshToken != "" {
		resp.RefreshToken = utils.Ptr(tok.RefreshToken)
	}
	if !tok.Expiry.IsZero() {
		seconds := math.Round(tok.Expiry.Sub(s.nowFunc()).Seconds())
		resp.ExpiresIn = int64(math.Max(seconds, 0))
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}

// upstreamMessage prefers the OAuth2 error code and description returned by
// the Authorization Server.
func upstreamMessage(err error) string {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.ErrorCode != "" {
		if rerr.ErrorDescription != "" {
			return rerr.ErrorCode + ": " + rerr.ErrorDescription
		}
		return rerr.ErrorCode
	}
	return err.Error()
}
