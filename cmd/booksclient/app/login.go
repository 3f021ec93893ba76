package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/guireq/libreria-java-books/token"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := fromCommand(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			listener, err := ListenForCallback(s.config.GetRedirectURI())
			if err != nil {
				return err
			}
			defer listener.Close()

			if err := s.manager.InitiateLogin(ctx); err != nil {
				return err
			}

			log.Info().Msg("Waiting for the authorization callback...")
			code, state, err := listener.Wait(ctx)
			if err != nil {
				return err
			}
			if err := s.manager.CompleteLogin(ctx, code, state); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the browser callback")
	return cmd
}

func openBrowser(ctx context.Context, authURL string) error {
	fmt.Printf("Opening the browser to sign in. If it does not open, visit:\n\n  %s\n\n", authURL)
	if err := (token.BrowserNavigator{}).Navigate(ctx, authURL); err != nil {
		log.Warn().Err(err).Msg("failed to open browser")
	}
	return nil
}

type callbackResult struct {
	code  string
	state string
	err   error
}

// CallbackListener serves the redirect URI on the loopback interface and
// hands the first callback it receives to Wait.
type CallbackListener struct {
	ln     net.Listener
	srv    *http.Server
	result chan callbackResult
}

// ListenForCallback listens on the host and port of redirectURI.
func ListenForCallback(redirectURI string) (*CallbackListener, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("[app ListenForCallback] invalid redirect uri: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("[app ListenForCallback] redirect uri must be a loopback http url, got %q", redirectURI)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("[app ListenForCallback] listen on %s: %w", u.Host, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	l := &CallbackListener{
		ln:     ln,
		result: make(chan callbackResult, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, l.handleCallback)
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("callback server stopped")
		}
	}()
	return l, nil
}

// Addr is the address the listener is bound to.
func (l *CallbackListener) Addr() string {
	return l.ln.Addr().String()
}

func (l *CallbackListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	code, state, err := token.ParseCallback(r.URL.Query())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html><body><h1>Login failed</h1><p>You can close this window.</p></body></html>")
	} else {
		fmt.Fprint(w, "<html><body><h1>Login complete</h1><p>You can close this window.</p></body></html>")
	}

	select {
	case l.result <- callbackResult{code: code, state: state, err: err}:
	default:
		// a result is already waiting
	}
}

// Wait blocks until a callback arrives or ctx is done.
func (l *CallbackListener) Wait(ctx context.Context) (code, state string, err error) {
	select {
	case res := <-l.result:
		return res.code, res.state, res.err
	case <-ctx.Done():
		return "", "", fmt.Errorf("[app Wait] no callback received: %w", ctx.Err())
	}
}

func (l *CallbackListener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
