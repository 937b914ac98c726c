// Package transport speaks HTTP/1.1 to the figo Connect API over a pinned TLS
// connection and classifies every response into an outcome or a typed error.
//
// Each call opens its own connection, writes the request with
// "Connection: close", reads until EOF and closes. Nothing is shared between
// calls except the immutable configuration, so a Transport can be used from
// any number of goroutines.
//
// # Classification
//
//   - 2xx: success; an empty body yields an empty Outcome, anything else must be JSON
//   - 404: Outcome with Found=false, never an error
//   - 503: *APIError named service_unavailable (rate limiting)
//   - other 4xx: *APIError decoded from {"error": {...}}
//   - everything else: *APIError named internal_server_error
//
// Socket and handshake failures are *Error with Kind SocketError; a pinning
// mismatch is SSLError; unparseable bodies are JSONError. Nothing is retried.
//
// # Quick Start
//
//	cfg := transport.DefaultConfig()
//	tr, err := transport.New(cfg, transport.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outcome, err := tr.Do(ctx, transport.RequestSpec{Path: "/catalog/banks"})
package transport
