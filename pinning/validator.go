package pinning

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

// ErrFingerprintMismatch is matched (via errors.Is) by every MismatchError.
var ErrFingerprintMismatch = errors.New("pinning: certificate fingerprint mismatch")

// MismatchError reports a peer certificate whose fingerprint is not pinned.
type MismatchError struct {
	Got Fingerprint
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("pinning: certificate fingerprint %s is not in the allow-list", e.Got)
}

// Is makes errors.Is(err, ErrFingerprintMismatch) succeed.
func (e *MismatchError) Is(target error) bool {
	return target == ErrFingerprintMismatch
}

// Validator checks presented certificates against a FingerprintSet.
type Validator struct {
	allowed FingerprintSet
}

// NewValidator returns a Validator for the given allow-list. An empty set is
// rejected, since it would refuse every connection.
func NewValidator(allowed FingerprintSet) (*Validator, error) {
	if allowed.Len() == 0 {
		return nil, errors.New("pinning: fingerprint set is empty")
	}
	return &Validator{allowed: allowed}, nil
}

// Verify accepts cert iff its SHA-256 fingerprint is in the allow-list.
func (v *Validator) Verify(cert *x509.Certificate) error {
	if cert == nil {
		return errors.New("pinning: no peer certificate presented")
	}
	fp := Of(cert)
	if !v.allowed.Contains(fp) {
		return &MismatchError{Got: fp}
	}
	return nil
}

// VerifyConnection is suitable for tls.Config.VerifyConnection. It runs after
// the standard chain verification and checks the leaf certificate. Returning
// an error aborts the handshake, so no application data is ever written.
func (v *Validator) VerifyConnection(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return v.Verify(nil)
	}
	return v.Verify(cs.PeerCertificates[0])
}
