package oauth2client

import (
	"encoding/base64"
	"errors"
)

// Credentials identify the application to the figo API. They are fixed for
// the lifetime of a Client.
type Credentials struct {
	ClientID     string
	ClientSecret string

	// RedirectURI is optional. When set it is sent with authorization
	// requests and code exchanges.
	RedirectURI string
}

func (c Credentials) validate() error {
	if c.ClientID == "" {
		return errors.New("oauth2client: client ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("oauth2client: client secret is required")
	}
	return nil
}

// authorization returns the HTTP Basic header value for the client.
func (c Credentials) authorization() string {
	raw := c.ClientID + ":" + c.ClientSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}
