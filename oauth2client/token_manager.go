package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/grpc/credentials"
)

// ErrNoRefreshToken is returned when the access token expired and the
// TokenManager holds no refresh token to renew it.
var ErrNoRefreshToken = errors.New("oauth2client: access token expired and no refresh token is available")

// TokenManager keeps a TokenSet fresh by exchanging its refresh token shortly
// before the access token expires. It is safe for concurrent access.
type TokenManager struct {
	client       *Client
	token        *TokenSet
	mu           sync.RWMutex
	ctx          context.Context // used by Token, which has no context parameter
	expiryLeeway time.Duration
	scope        string
	onRefresh    func(*TokenSet)
	logger       *zap.Logger
}

// ManagerOption is a functional option for configuring TokenManager.
type ManagerOption func(*TokenManager)

// WithExpiryLeeway sets how long before expiry a token is renewed.
// Default: 1 minute
func WithExpiryLeeway(d time.Duration) ManagerOption {
	return func(tm *TokenManager) {
		if d >= 0 {
			tm.expiryLeeway = d
		}
	}
}

// WithRefreshScope narrows the scope requested on refresh.
func WithRefreshScope(scope string) ManagerOption {
	return func(tm *TokenManager) {
		tm.scope = scope
	}
}

// WithOnRefresh registers a callback invoked with every new TokenSet, for
// example session.Session.SetToken.
func WithOnRefresh(fn func(*TokenSet)) ManagerOption {
	return func(tm *TokenManager) {
		tm.onRefresh = fn
	}
}

// NewTokenManager creates a TokenManager seeded with initial, usually the
// result of Exchange or PasswordLogin.
//
// Parameters:
//   - ctx: context for refreshes triggered through Token (cancellation is dropped)
//   - client: the Client used to refresh
//   - initial: the starting TokenSet
//   - opts: optional configuration (WithExpiryLeeway, WithRefreshScope, WithOnRefresh)
func NewTokenManager(ctx context.Context, client *Client, initial *TokenSet, opts ...ManagerOption) (*TokenManager, error) {
	if client == nil {
		return nil, errors.New("oauth2client: client is nil")
	}
	if initial == nil || (initial.AccessToken == "" && initial.RefreshToken == "") {
		return nil, errors.New("oauth2client: initial token set is empty")
	}

	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	tm := &TokenManager{
		client:       client,
		token:        initial,
		ctx:          ctx,
		expiryLeeway: time.Minute,
		logger:       client.logger,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// TokenSet returns the current token set without refreshing.
func (tm *TokenManager) TokenSet() *TokenSet {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.token
}

// AccessToken returns a valid access token, refreshing if necessary. It uses
// double-checked locking so concurrent callers trigger at most one refresh.
func (tm *TokenManager) AccessToken(ctx context.Context) (string, error) {
	ts, err := tm.current(ctx)
	if err != nil {
		return "", err
	}
	return ts.AccessToken, nil
}

func (tm *TokenManager) current(ctx context.Context) (*TokenSet, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tm.mu.RLock()
	if tm.tokenValid() {
		ts := tm.token
		tm.mu.RUnlock()
		return ts, nil
	}
	tm.mu.RUnlock()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.tokenValid() {
		return tm.token, nil
	}

	if tm.token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	fresh, err := tm.client.Exchange(ctx, RefreshToken(tm.token.RefreshToken), tm.scope)
	if err != nil {
		return nil, fmt.Errorf("oauth2client: failed to refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		// Refresh responses carry no new refresh token; the old one stays valid.
		carried := *fresh
		carried.RefreshToken = tm.token.RefreshToken
		fresh = &carried
	}
	tm.token = fresh

	tm.logger.Info("figo access token refreshed", zap.Time("expiry", fresh.Expiry))
	if tm.onRefresh != nil {
		tm.onRefresh(fresh)
	}
	return fresh, nil
}

func (tm *TokenManager) tokenValid() bool {
	if tm.token.AccessToken == "" {
		return false
	}
	return !tm.token.ExpiresWithin(tm.expiryLeeway)
}

// Token implements oauth2.TokenSource.
func (tm *TokenManager) Token() (*oauth2.Token, error) {
	ts, err := tm.current(tm.ctx)
	if err != nil {
		return nil, err
	}
	return ts.OAuth2Token(), nil
}

// PerRPCCredentials exposes the managed token as gRPC call credentials.
// Combine with pinning.TransportCredentials on the same connection.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "api.figo.me:443",
//	    grpc.WithTransportCredentials(creds),
//	    grpc.WithPerRPCCredentials(tm.PerRPCCredentials()),
//	)
func (tm *TokenManager) PerRPCCredentials() credentials.PerRPCCredentials {
	return perRPCCredentials{tm: tm}
}

type perRPCCredentials struct {
	tm *TokenManager
}

func (c perRPCCredentials) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	token, err := c.tm.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"authorization": "Bearer " + token}, nil
}

func (perRPCCredentials) RequireTransportSecurity() bool {
	return true
}
