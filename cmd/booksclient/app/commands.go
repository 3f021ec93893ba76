package app

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guireq/libreria-java-books/apiclient"
	"github.com/guireq/libreria-java-books/token"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current login state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := fromCommand(cmd).manager
			state := m.State()
			fmt.Fprintf(cmd.OutOrStdout(), "State:   %s\n", state)
			if state == token.LoggedOut {
				return nil
			}

			tokens := m.Tokens()
			if !tokens.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Expires: %s\n", tokens.ExpiresAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refresh: %t\n", tokens.RefreshToken != "")

			claims, err := token.ParseClaims(tokens.AccessToken)
			if err != nil {
				// opaque access tokens carry no claims
				return nil
			}
			if claims.Subject != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Subject: %s\n", claims.Subject)
			}
			if len(claims.Scopes) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Scopes:  %s\n", strings.Join(claims.Scopes, " "))
			}
			if len(claims.Roles) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Roles:   %s\n", strings.Join(claims.Roles, ", "))
			}
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it when expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := fromCommand(cmd).manager.TokenSource(cmd.Context()).Token()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := fromCommand(cmd).manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	var (
		method string
		body   string
	)

	cmd := &cobra.Command{
		Use:   "get <endpoint>",
		Short: "Call an API endpoint with the managed access token",
		Example: `  booksclient get /api/book
  booksclient get /api/book --method POST --data '{"titulo":"Rayuela"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apiclient.RequestOptions{Method: strings.ToUpper(method)}
			if body != "" {
				opts.Body = []byte(body)
			}

			resp, err := fromCommand(cmd).api.Do(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("%s %s: %s", opts.Method, args[0], resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&body, "data", "d", "", "request body")
	return cmd
}
