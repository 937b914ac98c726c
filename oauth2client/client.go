package oauth2client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-figo/transport"
)

const (
	authCodePath   = "/auth/code"
	authTokenPath  = "/auth/token"
	authRevokePath = "/auth/revoke"
	authUserPath   = "/auth/user"
	catalogPath    = "/catalog"

	// DefaultLanguage is used by CreateUser when no language is given.
	DefaultLanguage = "de"
)

// Client performs the OAuth2 flows of the figo API on behalf of one
// application. It is safe for concurrent use.
type Client struct {
	tr       *transport.Transport
	creds    Credentials
	encoding transport.Encoding
	logger   *zap.Logger
	now      func() time.Time
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithLogger sets the logger for token events. Tokens themselves are never
// logged. If not set, no logging will occur.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFormEncoding sends auth requests as application/x-www-form-urlencoded
// instead of JSON.
func WithFormEncoding() Option {
	return func(c *Client) {
		c.encoding = transport.EncodingForm
	}
}

// NewClient creates a Client that talks to the API through tr.
func NewClient(tr *transport.Transport, creds Credentials, opts ...Option) (*Client, error) {
	if tr == nil {
		return nil, errors.New("oauth2client: transport is nil")
	}
	if err := creds.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		tr:       tr,
		creds:    creds,
		encoding: transport.EncodingJSON,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credentials returns the client credentials.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// LoginURL returns the URL the user's browser must visit to grant access.
// state is echoed back to the redirect URI; scope is optional and space
// separated. No network call is made.
func (c *Client) LoginURL(state, scope string) string {
	ep := c.tr.Endpoint()
	cfg := oauth2.Config{
		ClientID:    c.creds.ClientID,
		RedirectURL: c.creds.RedirectURI,
		Scopes:      strings.Fields(scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  ep.URL(authCodePath),
			TokenURL: ep.URL(authTokenPath),
		},
	}
	return cfg.AuthCodeURL(state)
}

// Exchange trades grant for a new TokenSet. scope only applies to refresh
// tokens and may narrow the originally granted scope.
func (c *Client) Exchange(ctx context.Context, grant Grant, scope string) (*TokenSet, error) {
	if grant == nil {
		return nil, fmt.Errorf("%w: nil grant", ErrInvalidToken)
	}
	return c.requestToken(ctx, grant.GrantType(), grant.params(c.creds, scope))
}

// ExchangeToken parses raw with ParseGrant and exchanges it. Input that is
// neither an authorization code nor a refresh token fails with
// ErrInvalidToken before anything is sent.
func (c *Client) ExchangeToken(ctx context.Context, raw, scope string) (*TokenSet, error) {
	grant, err := ParseGrant(raw)
	if err != nil {
		return nil, err
	}
	return c.Exchange(ctx, grant, scope)
}

// PasswordLogin obtains tokens with the resource owner password grant.
func (c *Client) PasswordLogin(ctx context.Context, username, password, scope string) (*TokenSet, error) {
	params := map[string]string{
		"grant_type": "password",
		"username":   username,
		"password":   password,
	}
	if scope != "" {
		params["scope"] = scope
	}
	return c.requestToken(ctx, "password", params)
}

func (c *Client) requestToken(ctx context.Context, grantType string, params map[string]string) (*TokenSet, error) {
	outcome, err := c.post(ctx, authTokenPath, params)
	if err != nil {
		return nil, fmt.Errorf("oauth2client: %s grant: %w", grantType, err)
	}
	if !outcome.Found || outcome.Empty() {
		return nil, fmt.Errorf("oauth2client: %s grant: empty token response", grantType)
	}

	var ts TokenSet
	if err := json.Unmarshal(outcome.Body, &ts); err != nil {
		return nil, fmt.Errorf("oauth2client: %s grant: %w", grantType,
			&transport.Error{Kind: transport.JSONError, Detail: "Cannot decode JSON object.", Err: err})
	}
	if ts.AccessToken == "" {
		return nil, fmt.Errorf("oauth2client: %s grant: response carries no access token", grantType)
	}
	ts.stamp(c.now())

	c.logger.Debug("figo token obtained",
		zap.String("grant_type", grantType),
		zap.String("scope", ts.Scope),
		zap.Bool("refresh_token", ts.RefreshToken != ""),
		zap.Time("expiry", ts.Expiry),
	)
	return &ts, nil
}

// Revoke invalidates an access or refresh token.
func (c *Client) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("oauth2client: token is required")
	}
	if _, err := c.post(ctx, authRevokePath, map[string]string{"token": token}); err != nil {
		return fmt.Errorf("oauth2client: revoke: %w", err)
	}
	c.logger.Debug("figo token revoked")
	return nil
}

// NewUser describes an account created by CreateUser.
type NewUser struct {
	Name     string
	Email    string
	Password string

	// Language defaults to DefaultLanguage.
	Language string
}

// CreateUser registers a new figo user with this client as affiliate and
// returns the recovery password the user needs to reset their credentials.
func (c *Client) CreateUser(ctx context.Context, user NewUser) (string, error) {
	if user.Email == "" || user.Password == "" {
		return "", errors.New("oauth2client: email and password are required")
	}
	language := user.Language
	if language == "" {
		language = DefaultLanguage
	}

	outcome, err := c.post(ctx, authUserPath, map[string]string{
		"name":                user.Name,
		"email":               user.Email,
		"password":            user.Password,
		"language":            language,
		"affiliate_client_id": c.creds.ClientID,
	})
	if err != nil {
		return "", fmt.Errorf("oauth2client: create user: %w", err)
	}

	var resp struct {
		RecoveryPassword string `json:"recovery_password"`
	}
	if !outcome.Empty() && outcome.Found {
		if err := json.Unmarshal(outcome.Body, &resp); err != nil {
			return "", fmt.Errorf("oauth2client: create user: %w", err)
		}
	}
	if resp.RecoveryPassword == "" {
		return "", errors.New("oauth2client: create user: response carries no recovery password")
	}
	return resp.RecoveryPassword, nil
}

func (c *Client) post(ctx context.Context, path string, params map[string]string) (*transport.Outcome, error) {
	return c.tr.Do(ctx, transport.RequestSpec{
		Path:     path,
		Method:   http.MethodPost,
		Body:     params,
		Encoding: c.encoding,
		Header:   http.Header{"Authorization": {c.creds.authorization()}},
	})
}
