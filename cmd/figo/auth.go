package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AmmannChristian/go-figo/oauth2client"
)

func newLoginURLCmd(a *app) *cobra.Command {
	var state, scope string

	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print the URL that starts the OAuth login flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if state == "" {
				state = uuid.NewString()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), client.LoginURL(state, scope))
			return err
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Opaque state echoed to the redirect URI (default random)")
	cmd.Flags().StringVar(&scope, "scope", "", "Space separated scopes")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var (
		listen string
		scope  string
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the OAuth login flow with a local redirect listener",
		Long: "Prints the login URL, waits for the browser to be redirected to the local " +
			"listener and exchanges the authorization code for tokens.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := uuid.NewString()
			callback, err := startCallbackServer(listen, state)
			if err != nil {
				return err
			}
			defer callback.Close()

			creds := oauth2client.Credentials{
				ClientID:     a.config.ClientID,
				ClientSecret: a.config.ClientSecret,
				RedirectURI:  a.config.RedirectURI,
			}
			if creds.RedirectURI == "" {
				creds.RedirectURI = callback.redirectURI()
			}
			client, err := oauth2client.NewClient(a.tr, creds, oauth2client.WithLogger(a.logger))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Open this URL in a browser to log in:")
			fmt.Fprintln(cmd.OutOrStdout(), client.LoginURL(state, scope))

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			code, err := callback.wait(ctx)
			if err != nil {
				return err
			}
			tokens, err := client.Exchange(ctx, oauth2client.AuthorizationCode(code), "")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokens)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8765", "Address of the local redirect listener")
	cmd.Flags().StringVar(&scope, "scope", "", "Space separated scopes")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "How long to wait for the browser")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "token <authorization-code|refresh-token>",
		Short: "Exchange an authorization code or refresh token for tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			tokens, err := client.ExchangeToken(cmd.Context(), args[0], scope)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokens)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Narrowed scope when refreshing")
	return cmd
}

func newPasswordLoginCmd(a *app) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "password-login <username> <password>",
		Short: "Obtain tokens with the resource owner password grant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			tokens, err := client.PasswordLogin(cmd.Context(), args[0], args[1], scope)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokens)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Space separated scopes")
	return cmd
}

func newRevokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke an access or refresh token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			return client.Revoke(cmd.Context(), args[0])
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [banks|services]",
		Short:     "List supported banks and services",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(oauth2client.CatalogBanks), string(oauth2client.CatalogServices)},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			kind := oauth2client.CatalogAll
			if len(args) == 1 {
				kind = oauth2client.CatalogKind(args[0])
			}
			catalog, err := client.Catalog(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), catalog)
		},
	}
}
