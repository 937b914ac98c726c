// Package testutil provides TLS test helpers for go-figo packages.
//
// # Utilities
//
//   - NewLocalTLSServer: start an httptest HTTPS server bound to 127.0.0.1
//   - RootPool: trust store containing only a test server's certificate
//   - NewSelfSignedCert / WriteTestCACert: generate throwaway certificates
package testutil
