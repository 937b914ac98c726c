// Package pinning implements TLS certificate pinning for the figo Connect API.
//
// A peer certificate is accepted only if its SHA-256 fingerprint (digest of the
// DER encoding, colon-separated uppercase hex) is in a FingerprintSet. The check
// runs from tls.Config.VerifyConnection, after the regular CA-chain
// verification, so a mismatch aborts the handshake before any request is sent.
//
// SHA-256 is the only supported digest. Fingerprints pinned with the older
// SHA-1 scheme must be recomputed.
//
// # Quick Start
//
//	tlsCfg, err := pinning.NewTLSConfig(&pinning.TLSConfig{
//	    Fingerprints: pinning.DefaultFingerprints(),
//	    CAFile:       "/etc/figo/ca-bundle.crt",
//	    ServerName:   "api.figo.me",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conn, err := tls.Dial("tcp", "api.figo.me:443", tlsCfg)
package pinning
