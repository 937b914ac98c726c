package oauth2client

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenSet is the result of a successful token request. A TokenSet is never
// modified after it was returned; refreshing produces a new one.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`

	// Expiry is derived from ExpiresIn when the token was received. Zero
	// means unknown.
	Expiry time.Time `json:"expiry,omitempty"`
}

func (t *TokenSet) stamp(now time.Time) {
	if t.ExpiresIn > 0 {
		t.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// ExpiresWithin reports whether the access token expires within d. A token
// without known expiry never does.
func (t *TokenSet) ExpiresWithin(d time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Until(t.Expiry) <= d
}

// OAuth2Token converts the set to an *oauth2.Token.
func (t *TokenSet) OAuth2Token() *oauth2.Token {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    tokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
		ExpiresIn:    t.ExpiresIn,
	}
	if t.Scope != "" {
		tok = tok.WithExtra(map[string]any{"scope": t.Scope})
	}
	return tok
}
