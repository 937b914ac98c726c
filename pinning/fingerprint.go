package pinning

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint is the SHA-256 digest of a DER-encoded certificate, rendered as
// colon-separated uppercase hex (e.g. "CD:F3:D3:...").
type Fingerprint string

// OfDER computes the fingerprint of a DER-encoded certificate.
func OfDER(der []byte) Fingerprint {
	sum := sha256.Sum256(der)
	return format(sum[:])
}

// Of computes the fingerprint of a parsed certificate.
func Of(cert *x509.Certificate) Fingerprint {
	return OfDER(cert.Raw)
}

// ParseFingerprint normalizes a fingerprint string. Colons, spaces and case are
// ignored; the decoded digest must be exactly 32 bytes.
func ParseFingerprint(s string) (Fingerprint, error) {
	clean := strings.NewReplacer(":", "", " ", "", "-", "").Replace(strings.TrimSpace(s))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("pinning: invalid fingerprint %q: %w", s, err)
	}
	if len(raw) != sha256.Size {
		return "", fmt.Errorf("pinning: fingerprint %q has %d bytes, want %d", s, len(raw), sha256.Size)
	}
	return format(raw), nil
}

func format(digest []byte) Fingerprint {
	encoded := strings.ToUpper(hex.EncodeToString(digest))
	parts := make([]string, 0, len(digest))
	for i := 0; i < len(encoded); i += 2 {
		parts = append(parts, encoded[i:i+2])
	}
	return Fingerprint(strings.Join(parts, ":"))
}

// FingerprintSet is an ordered, de-duplicated allow-list of fingerprints.
// The zero value is an empty set. A FingerprintSet is never modified after
// construction and can be shared freely.
type FingerprintSet struct {
	list  []Fingerprint
	index map[Fingerprint]struct{}
}

// NewFingerprintSet parses and de-duplicates the given fingerprints, keeping
// the order of first appearance.
func NewFingerprintSet(fingerprints ...string) (FingerprintSet, error) {
	set := FingerprintSet{index: make(map[Fingerprint]struct{}, len(fingerprints))}
	for _, raw := range fingerprints {
		fp, err := ParseFingerprint(raw)
		if err != nil {
			return FingerprintSet{}, err
		}
		if _, dup := set.index[fp]; dup {
			continue
		}
		set.index[fp] = struct{}{}
		set.list = append(set.list, fp)
	}
	return set, nil
}

// MustFingerprintSet is like NewFingerprintSet but panics on invalid input.
func MustFingerprintSet(fingerprints ...string) FingerprintSet {
	set, err := NewFingerprintSet(fingerprints...)
	if err != nil {
		panic(err)
	}
	return set
}

// DefaultFingerprints returns the built-in allow-list for api.figo.me.
func DefaultFingerprints() FingerprintSet {
	return MustFingerprintSet(
		"CD:F3:D3:26:27:89:91:B9:CD:AE:4B:10:6C:96:81:B7:EB:B3:38:10:C4:72:37:6A:4D:9C:84:B7:B3:DC:D6:8D",
		"79:B2:A2:93:00:85:3B:06:92:B1:B5:F2:24:79:48:58:3A:A5:22:0F:C5:CD:E9:49:9A:C8:45:1E:DB:E0:DA:50",
	)
}

// Contains reports whether fp is in the set.
func (s FingerprintSet) Contains(fp Fingerprint) bool {
	_, ok := s.index[fp]
	return ok
}

// Len returns the number of fingerprints in the set.
func (s FingerprintSet) Len() int {
	return len(s.list)
}

// List returns a copy of the fingerprints in insertion order.
func (s FingerprintSet) List() []Fingerprint {
	out := make([]Fingerprint, len(s.list))
	copy(out, s.list)
	return out
}

func (s FingerprintSet) String() string {
	parts := make([]string, len(s.list))
	for i, fp := range s.list {
		parts[i] = string(fp)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
