package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TokenProvider supplies the access token for a request.
// *oauth2client.TokenManager implements it.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

// AccessToken implements TokenProvider.
func (s StaticToken) AccessToken(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("httpclient: empty access token")
	}
	return string(s), nil
}

// APITransport is an http.RoundTripper that adds the headers every API call
// carries: User-Agent, Accept and, when Tokens is set, a Bearer token.
type APITransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Tokens provides access tokens. Requests go out without Authorization
	// when nil.
	Tokens TokenProvider

	UserAgent string
}

// RoundTrip implements http.RoundTripper interface.
// The token lookup respects the request context's cancellation and deadline.
func (t *APITransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())

	if t.Tokens != nil {
		token, err := t.Tokens.AccessToken(req.Context())
		if err != nil {
			return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
		}
		reqClone.Header.Set("Authorization", "Bearer "+token)
	}
	if t.UserAgent != "" {
		reqClone.Header.Set("User-Agent", t.UserAgent)
	}
	if reqClone.Header.Get("Accept") == "" {
		reqClone.Header.Set("Accept", "application/json")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(reqClone)
}

// NewAPITransport creates an APITransport with the given token provider.
// The base transport defaults to http.DefaultTransport if not specified.
func NewAPITransport(tokens TokenProvider, base http.RoundTripper) *APITransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &APITransport{
		Base:   base,
		Tokens: tokens,
	}
}
