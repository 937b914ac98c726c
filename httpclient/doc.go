// Package httpclient builds a standard *http.Client for the figo API that
// shares the pinned TLS configuration of a transport.Transport.
//
// Use it when a net/http client is more convenient than session.Session, for
// example to stream a large export or to plug the API into code that expects
// an *http.Client. Requests carry the SDK User-Agent and, optionally, a Bearer
// token from a TokenProvider such as *oauth2client.TokenManager.
//
//	client, err := httpclient.NewBuilder(tr).
//	    WithTokenProvider(tokenManager).
//	    WithTimeout(30 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get(tr.Endpoint().URL("/rest/transactions"))
//
// Keep-alives are off by default so that every request performs a fresh
// handshake and fingerprint check, matching transport.Transport.
package httpclient
