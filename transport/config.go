package transport

import (
	"crypto/x509"
	"errors"
	"time"

	"github.com/AmmannChristian/go-figo/pinning"
)

const (
	// DefaultEndpoint is the production API server. Its /v3 base path is
	// prefixed to every call.
	DefaultEndpoint = "https://api.figo.me/v3"

	// DefaultTimeout applies to both connecting and reading.
	DefaultTimeout = 60 * time.Second

	// Product and Version make up the default User-Agent.
	Product = "go-figo"
	Version = "1.0.0"
)

// Config is the immutable connection configuration shared by the auth client
// and sessions. Build one with DefaultConfig and override fields as needed.
type Config struct {
	Endpoint Endpoint

	// Fingerprints is the certificate allow-list. Must be non-empty unless
	// DisablePinning is set.
	Fingerprints pinning.FingerprintSet

	// CAFile is an optional PEM trust-store bundle.
	CAFile string

	// RootCAs overrides the trust store. Takes precedence over CAFile.
	RootCAs *x509.CertPool

	// DisablePinning keeps CA validation but skips the fingerprint check.
	DisablePinning bool

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// UserAgent defaults to Product/Version.
	UserAgent string
}

// DefaultConfig returns the configuration for the production API.
func DefaultConfig() Config {
	return Config{
		Endpoint:       MustParseEndpoint(DefaultEndpoint),
		Fingerprints:   pinning.DefaultFingerprints(),
		ConnectTimeout: DefaultTimeout,
		ReadTimeout:    DefaultTimeout,
		UserAgent:      Product + "/" + Version,
	}
}

func (c Config) validate() error {
	if c.Endpoint.Host == "" {
		return errors.New("transport: endpoint host is required")
	}
	if c.ConnectTimeout < 0 || c.ReadTimeout < 0 {
		return errors.New("transport: timeouts must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = Product + "/" + Version
	}
	return c
}
