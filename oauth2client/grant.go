package oauth2client

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned by ParseGrant for input that is neither an
// authorization code nor a refresh token.
var ErrInvalidToken = errors.New("oauth2client: invalid_token")

const (
	authorizationCodePrefix = 'O'
	refreshTokenPrefix      = 'R'
)

// Grant is a credential that can be traded for a TokenSet. The concrete types
// are AuthorizationCode and RefreshToken.
type Grant interface {
	// GrantType is the OAuth2 grant_type parameter.
	GrantType() string

	params(creds Credentials, scope string) map[string]string
}

// AuthorizationCode is the code delivered to the redirect URI after the user
// approved access.
type AuthorizationCode string

// GrantType implements Grant.
func (AuthorizationCode) GrantType() string { return "authorization_code" }

func (g AuthorizationCode) params(creds Credentials, _ string) map[string]string {
	p := map[string]string{
		"grant_type": g.GrantType(),
		"code":       string(g),
	}
	if creds.RedirectURI != "" {
		p["redirect_uri"] = creds.RedirectURI
	}
	return p
}

// RefreshToken is a long-lived token used to obtain new access tokens.
type RefreshToken string

// GrantType implements Grant.
func (RefreshToken) GrantType() string { return "refresh_token" }

func (g RefreshToken) params(_ Credentials, scope string) map[string]string {
	p := map[string]string{
		"grant_type":    g.GrantType(),
		"refresh_token": string(g),
	}
	if scope != "" {
		p["scope"] = scope
	}
	return p
}

// ParseGrant classifies a raw token by its first character: authorization
// codes start with 'O' and refresh tokens with 'R'.
func ParseGrant(token string) (Grant, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	switch token[0] {
	case authorizationCodePrefix:
		return AuthorizationCode(token), nil
	case refreshTokenPrefix:
		return RefreshToken(token), nil
	default:
		return nil, fmt.Errorf("%w: token is neither an authorization code nor a refresh token", ErrInvalidToken)
	}
}
