package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-figo/oauth2client"
	"github.com/AmmannChristian/go-figo/transport"
)

// ErrNoToken is returned by Call when the session holds no access token.
var ErrNoToken = errors.New("session: no access token")

// Session performs authenticated calls on behalf of one user. The access
// token is replaced atomically by SetToken, so a Session can be shared by
// concurrent callers while another goroutine refreshes it.
type Session struct {
	tr     *transport.Transport
	token  atomic.Pointer[oauth2client.TokenSet]
	source oauth2.TokenSource
	logger *zap.Logger
}

// Option is a functional option for configuring Session.
type Option func(*Session)

// WithLogger sets the logger for task polling events.
// If not set, no logging will occur.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Session using accessToken.
func New(tr *transport.Transport, accessToken string, opts ...Option) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoToken
	}
	s, err := newSession(tr, opts)
	if err != nil {
		return nil, err
	}
	s.token.Store(&oauth2client.TokenSet{AccessToken: accessToken, TokenType: "Bearer"})
	return s, nil
}

// NewWithTokenSource creates a Session that asks ts for the access token
// before every call, for example an *oauth2client.TokenManager.
func NewWithTokenSource(tr *transport.Transport, ts oauth2.TokenSource, opts ...Option) (*Session, error) {
	if ts == nil {
		return nil, errors.New("session: token source is nil")
	}
	s, err := newSession(tr, opts)
	if err != nil {
		return nil, err
	}
	s.source = ts
	return s, nil
}

func newSession(tr *transport.Transport, opts []Option) (*Session, error) {
	if tr == nil {
		return nil, errors.New("session: transport is nil")
	}
	s := &Session{tr: tr, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetToken replaces the token set used for subsequent calls. It is ignored
// for sessions backed by a token source.
func (s *Session) SetToken(ts *oauth2client.TokenSet) {
	if ts == nil || ts.AccessToken == "" {
		return
	}
	s.token.Store(ts)
}

// Token returns the current token set, or nil for sessions backed by a token
// source.
func (s *Session) Token() *oauth2client.TokenSet {
	return s.token.Load()
}

func (s *Session) accessToken() (string, error) {
	if s.source != nil {
		tok, err := s.source.Token()
		if err != nil {
			return "", fmt.Errorf("session: %w", err)
		}
		return tok.AccessToken, nil
	}
	if ts := s.token.Load(); ts != nil && ts.AccessToken != "" {
		return ts.AccessToken, nil
	}
	return "", ErrNoToken
}

// Call sends data as JSON to path with the given method (GET when empty) and
// returns the decoded outcome. A 404 yields a Result whose Found reports
// false and a nil error; every other failure is a *transport.APIError or
// *transport.Error.
func (s *Session) Call(ctx context.Context, path string, data any, method string) (Result, error) {
	token, err := s.accessToken()
	if err != nil {
		return Result{}, err
	}

	outcome, err := s.tr.Do(ctx, transport.RequestSpec{
		Path:   path,
		Method: method,
		Body:   data,
		Header: http.Header{"Authorization": {"Bearer " + token}},
	})
	if err != nil {
		return Result{}, err
	}
	return newResult(outcome), nil
}

// get calls path and decodes the body into v. It reports false for 404.
func (s *Session) get(ctx context.Context, path string, v any) (bool, error) {
	return s.do(ctx, path, nil, http.MethodGet, v)
}

func (s *Session) do(ctx context.Context, path string, data any, method string, v any) (bool, error) {
	result, err := s.Call(ctx, path, data, method)
	if err != nil {
		return false, err
	}
	return result.Decode(v)
}

// Endpoint returns the API endpoint of the underlying transport.
func (s *Session) Endpoint() transport.Endpoint {
	return s.tr.Endpoint()
}
