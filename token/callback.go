package token

import (
	"fmt"
	"net/url"
)

// ParseCallback extracts code and state from the redirect's query. An error
// parameter from the authorization server aborts with ErrAuthorizationDenied.
func ParseCallback(query url.Values) (code, state string, err error) {
	if e := query.Get("error"); e != "" {
		if desc := query.Get("error_description"); desc != "" {
			return "", "", fmt.Errorf("%w: %s: %s", ErrAuthorizationDenied, e, desc)
		}
		return "", "", fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)
	}

	code = query.Get("code")
	state = query.Get("state")
	if code == "" || state == "" {
		return "", "", ErrMissingParameters
	}
	return code, state, nil
}
