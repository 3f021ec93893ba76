package token

import (
	"context"

	"github.com/pkg/browser"
)

// Navigator sends the user agent to the authorization URL.
type Navigator interface {
	Navigate(ctx context.Context, authURL string) error
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(ctx context.Context, authURL string) error

func (f NavigatorFunc) Navigate(ctx context.Context, authURL string) error {
	return f(ctx, authURL)
}

// BrowserNavigator opens the URL in the system browser.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(_ context.Context, authURL string) error {
	return browser.OpenURL(authURL)
}
