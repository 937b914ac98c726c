package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AmmannChristian/go-figo/oauth2client"
	"github.com/AmmannChristian/go-figo/session"
	"github.com/AmmannChristian/go-figo/transport"
)

// app carries the state shared by all subcommands once the configuration has
// been loaded.
type app struct {
	config cliConfig
	logger *zap.Logger
	tr     *transport.Transport
}

func (a *app) client() (*oauth2client.Client, error) {
	return oauth2client.NewClient(a.tr, oauth2client.Credentials{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		RedirectURI:  a.config.RedirectURI,
	}, oauth2client.WithLogger(a.logger))
}

func (a *app) session(token string) (*session.Session, error) {
	if token == "" {
		token = a.config.AccessToken
	}
	if token == "" {
		return nil, errors.New("no access token: pass --token or set FIGO_ACCESS_TOKEN")
	}
	return session.New(a.tr, token, session.WithLogger(a.logger))
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configFile string

	root := &cobra.Command{
		Use:           "figo",
		Short:         "Command line client for the figo Connect API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(viper.New(), cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(config.LogLevel)
			if err != nil {
				return err
			}
			trConfig, err := config.transportConfig()
			if err != nil {
				return err
			}
			tr, err := transport.New(trConfig, transport.WithLogger(logger))
			if err != nil {
				return err
			}

			a.config = config
			a.logger = logger
			a.tr = tr
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a configuration file (default ./figo.yaml or ~/.config/figo/figo.yaml)")
	flags.String("endpoint", transport.DefaultEndpoint, "API base URL")
	flags.String("client-id", "", "OAuth client identifier")
	flags.String("client-secret", "", "OAuth client secret")
	flags.String("redirect-uri", "", "Registered redirect URI")
	flags.StringSlice("fingerprint", nil, "Accepted server certificate SHA-256 fingerprint (repeatable)")
	flags.String("ca-file", "", "PEM bundle used instead of the system trust store")
	flags.Duration("timeout", transport.DefaultTimeout, "Connect and read timeout")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newLoginURLCmd(a),
		newLoginCmd(a),
		newTokenCmd(a),
		newPasswordLoginCmd(a),
		newRevokeCmd(a),
		newCatalogCmd(a),
		newCallCmd(a),
		newTaskCmd(a),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
