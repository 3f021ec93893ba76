package oauthmodel

import "errors"

var (
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrInvalidCodeChallengeMethod = errors.New("invalid code challenge method")
	ErrInvalidRedirectUri         = errors.New("invalid or no redirect uri")
	ErrInvalidClientID            = errors.New("invalid or no client id")
	ErrInvalidAuthorizationServer = errors.New("invalid or no authorization server")
	ErrInvalidResponseType        = errors.New("unsupported response type")
)
