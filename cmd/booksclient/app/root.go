// Package app provides the commands of the booksclient command-line application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/guireq/libreria-java-books/apiclient"
	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/guireq/libreria-java-books/internal/logging"
	"github.com/guireq/libreria-java-books/internal/tokenstore"
	"github.com/guireq/libreria-java-books/storage"
	"github.com/guireq/libreria-java-books/token"
	"github.com/guireq/libreria-java-books/tokenproxy"
	"github.com/spf13/cobra"
)

// session is the wiring shared by every command: the config, the token
// manager over the configured store and the API client.
type session struct {
	config  config.Config
	manager *token.Manager
	api     *apiclient.Client
	close   func() error
}

type sessionKey struct{}

func fromCommand(cmd *cobra.Command) *session {
	s, _ := cmd.Context().Value(sessionKey{}).(*session)
	return s
}

// NewRootCmd creates the root command for the booksclient CLI.
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		envFile    string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:               "booksclient",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Log in to the books API and call it with a managed access token",
		Long: `booksclient signs in with the OAuth2 authorization code flow and PKCE,
keeps the resulting tokens in the configured token store and refreshes them
through the token proxy when they expire.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var dotenv []string
			if envFile != "" {
				dotenv = append(dotenv, envFile)
			}
			c, err := config.Load(configFile, dotenv...)
			if err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = c.GetLogLevel()
			}
			logging.Setup(level, true)

			s, err := newSession(cmd.Context(), c)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, s))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if s := fromCommand(cmd); s != nil {
				return s.close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newGetCmd())

	return rootCmd
}

func newSession(ctx context.Context, c config.Config) (*session, error) {
	durable, closeStore, err := tokenstore.Open(c)
	if err != nil {
		return nil, err
	}

	proxy, err := tokenproxy.NewClient(c.GetAPIBaseURL())
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	// The verifier only has to outlive one login command.
	manager := token.New(c, proxy, durable, storage.NewMemoryStore(),
		token.WithNavigator(token.NavigatorFunc(openBrowser)),
	)
	if err := manager.Load(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("load tokens: %w", err), closeStore())
	}

	return &session{
		config:  c,
		manager: manager,
		api:     apiclient.New(c.GetAPIBaseURL(), manager),
		close:   closeStore,
	}, nil
}
