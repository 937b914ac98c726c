// Package oauth2client implements the OAuth2 flows of the figo Connect API.
//
// A Client trades authorization codes, refresh tokens and user passwords for
// a TokenSet, revokes tokens and registers new users. Every request carries
// HTTP Basic client authentication and goes through a pinned
// transport.Transport.
//
// # Grants
//
// Grants are a closed set of types. Callers either construct one directly or
// let ParseGrant classify an opaque token by its prefix:
//
//	grant, err := oauth2client.ParseGrant(raw) // "O..." or "R..."
//	if errors.Is(err, oauth2client.ErrInvalidToken) {
//	    // rejected locally, nothing was sent
//	}
//	tokens, err := client.Exchange(ctx, grant, "")
//
// # Quick Start
//
//	client, err := oauth2client.NewClient(tr, oauth2client.Credentials{
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    RedirectURI:  "https://example.com/callback",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	url := client.LoginURL(state, "accounts=ro transactions=ro")
//	// ... user approves, the redirect delivers code ...
//	tokens, err := client.Exchange(ctx, oauth2client.AuthorizationCode(code), "")
//
// # Notes
//
//   - TokenManager renews access tokens with the refresh token before they
//     expire and can serve as oauth2.TokenSource or gRPC PerRPCCredentials.
//   - Client and TokenManager are safe for concurrent use.
package oauth2client
