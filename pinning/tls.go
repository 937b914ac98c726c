package pinning

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"google.golang.org/grpc/credentials"
)

// TLSConfig describes a pinned client TLS configuration.
type TLSConfig struct {
	// Fingerprints is the allow-list checked on every handshake.
	Fingerprints FingerprintSet

	// CAFile is an optional PEM bundle used as the trust store instead of the
	// system roots.
	CAFile string

	// RootCAs overrides the trust store directly. Takes precedence over CAFile.
	RootCAs *x509.CertPool

	// ServerName is the expected host name. Usually set per endpoint.
	ServerName string

	// MinVersion specifies the minimum TLS version.
	// Default: TLS 1.2
	MinVersion uint16

	// DisablePinning skips the fingerprint check and keeps only CA
	// validation. Intended for tests and local development.
	DisablePinning bool
}

// NewTLSConfig builds a *tls.Config that performs standard chain verification
// followed by the fingerprint check.
//
// Example usage:
//
//	tlsCfg, err := pinning.NewTLSConfig(&pinning.TLSConfig{
//	    Fingerprints: pinning.DefaultFingerprints(),
//	    ServerName:   "api.figo.me",
//	})
func NewTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, errors.New("pinning: TLS config is nil")
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: cfg.ServerName,
	}
	if cfg.MinVersion > 0 {
		tlsConfig.MinVersion = cfg.MinVersion
	}

	switch {
	case cfg.RootCAs != nil:
		tlsConfig.RootCAs = cfg.RootCAs
	case cfg.CAFile != "":
		pool, err := loadCABundle(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("pinning: load CA bundle: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	if !cfg.DisablePinning {
		validator, err := NewValidator(cfg.Fingerprints)
		if err != nil {
			return nil, err
		}
		tlsConfig.VerifyConnection = validator.VerifyConnection
	}

	return tlsConfig, nil
}

// TransportCredentials wraps the pinned TLS configuration for gRPC clients
// talking to the same backend.
func TransportCredentials(cfg *TLSConfig) (credentials.TransportCredentials, error) {
	tlsConfig, err := NewTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(tlsConfig), nil
}

func loadCABundle(path string) (*x509.CertPool, error) {
	pemBytes, err := readTLSFile(path)
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, errors.New("no certificates found in CA bundle")
	}
	return pool, nil
}

func readTLSFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("empty TLS file path")
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve TLS path %q: %w", path, err)
	}

	f, err := os.OpenInRoot(filepath.Dir(abs), filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
