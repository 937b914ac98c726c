package pinning

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/AmmannChristian/go-figo/internal/testutil"
)

const sampleFingerprint = "CD:F3:D3:26:27:89:91:B9:CD:AE:4B:10:6C:96:81:B7:EB:B3:38:10:C4:72:37:6A:4D:9C:84:B7:B3:DC:D6:8D"

func TestParseFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Fingerprint
		wantErr bool
	}{
		{name: "canonical", input: sampleFingerprint, want: sampleFingerprint},
		{name: "lowercase", input: strings.ToLower(sampleFingerprint), want: sampleFingerprint},
		{name: "no separators", input: strings.ReplaceAll(sampleFingerprint, ":", ""), want: sampleFingerprint},
		{name: "surrounding space", input: "  " + sampleFingerprint + "\n", want: sampleFingerprint},
		{name: "sha1 length", input: "AA:BB:CC:DD:EE:FF:00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD", wantErr: true},
		{name: "not hex", input: "ZZ:" + sampleFingerprint[3:], wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFingerprint(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOf_MatchesSHA256OfDER(t *testing.T) {
	cert := testutil.NewSelfSignedCert(t, "figo-test")

	sum := sha256.Sum256(cert.Raw)
	want, err := ParseFingerprint(hex.EncodeToString(sum[:]))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := Of(cert); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := string(Of(cert)); strings.ToUpper(got) != got || strings.Count(got, ":") != sha256.Size-1 {
		t.Errorf("fingerprint not in colon-separated uppercase form: %s", got)
	}
}

func TestNewFingerprintSet(t *testing.T) {
	other := strings.Repeat("AB", sha256.Size)

	set, err := NewFingerprintSet(sampleFingerprint, other, strings.ToLower(sampleFingerprint))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("expected duplicates to be removed, got %d entries", set.Len())
	}
	list := set.List()
	if list[0] != sampleFingerprint {
		t.Errorf("expected insertion order to be kept, got %v", list)
	}

	list[0] = "mutated"
	if set.List()[0] != sampleFingerprint {
		t.Error("List should return a copy")
	}

	if _, err := NewFingerprintSet(sampleFingerprint, "nope"); err == nil {
		t.Error("expected error for invalid entry")
	}
}

func TestDefaultFingerprints(t *testing.T) {
	set := DefaultFingerprints()
	if set.Len() != 2 {
		t.Fatalf("expected 2 default fingerprints, got %d", set.Len())
	}
	if !set.Contains(sampleFingerprint) {
		t.Error("default set should contain the API certificate fingerprint")
	}
}

func TestValidator(t *testing.T) {
	pinned := testutil.NewSelfSignedCert(t, "pinned")
	stranger := testutil.NewSelfSignedCert(t, "stranger")

	set, err := NewFingerprintSet(string(Of(pinned)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := NewValidator(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Verify(pinned); err != nil {
		t.Errorf("pinned certificate should be accepted: %v", err)
	}

	err = v.Verify(stranger)
	if !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
	}
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) || mismatch.Got != Of(stranger) {
		t.Errorf("expected MismatchError carrying the presented fingerprint, got %v", err)
	}

	if err := v.Verify(nil); err == nil {
		t.Error("expected error for missing certificate")
	}
	if err := v.VerifyConnection(tls.ConnectionState{}); err == nil {
		t.Error("expected error for connection without peer certificates")
	}
}

func TestNewValidator_EmptySet(t *testing.T) {
	if _, err := NewValidator(FingerprintSet{}); err == nil {
		t.Fatal("expected error for empty fingerprint set")
	}
}

func TestNewTLSConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		if _, err := NewTLSConfig(nil); err == nil {
			t.Fatal("expected error for nil config")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewTLSConfig(&TLSConfig{Fingerprints: DefaultFingerprints(), ServerName: "api.figo.me"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MinVersion != tls.VersionTLS12 {
			t.Errorf("expected TLS 1.2 minimum, got %x", cfg.MinVersion)
		}
		if cfg.ServerName != "api.figo.me" {
			t.Errorf("unexpected server name %q", cfg.ServerName)
		}
		if cfg.VerifyConnection == nil {
			t.Error("expected VerifyConnection to be installed")
		}
		if cfg.InsecureSkipVerify {
			t.Error("chain verification must stay enabled")
		}
	})

	t.Run("custom min version", func(t *testing.T) {
		cfg, err := NewTLSConfig(&TLSConfig{Fingerprints: DefaultFingerprints(), MinVersion: tls.VersionTLS13})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MinVersion != tls.VersionTLS13 {
			t.Errorf("expected TLS 1.3 minimum, got %x", cfg.MinVersion)
		}
	})

	t.Run("empty fingerprints", func(t *testing.T) {
		if _, err := NewTLSConfig(&TLSConfig{}); err == nil {
			t.Fatal("expected error for empty fingerprint set")
		}
	})

	t.Run("pinning disabled", func(t *testing.T) {
		cfg, err := NewTLSConfig(&TLSConfig{DisablePinning: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.VerifyConnection != nil {
			t.Error("VerifyConnection should not be set when pinning is disabled")
		}
	})

	t.Run("CA bundle", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca-bundle.crt")
		testutil.WriteTestCACert(t, path)

		cfg, err := NewTLSConfig(&TLSConfig{Fingerprints: DefaultFingerprints(), CAFile: path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RootCAs == nil {
			t.Error("expected RootCAs from bundle")
		}
	})

	t.Run("missing CA bundle", func(t *testing.T) {
		_, err := NewTLSConfig(&TLSConfig{
			Fingerprints: DefaultFingerprints(),
			CAFile:       filepath.Join(t.TempDir(), "missing.crt"),
		})
		if err == nil {
			t.Fatal("expected error for missing CA bundle")
		}
	})
}

func TestHandshake(t *testing.T) {
	var requests atomic.Int32
	server := testutil.NewLocalTLSServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	addr := server.Listener.Addr().String()

	tests := []struct {
		name         string
		fingerprints FingerprintSet
		wantMismatch bool
	}{
		{
			name:         "pinned certificate",
			fingerprints: MustFingerprintSet(string(Of(server.Certificate()))),
		},
		{
			name:         "unknown certificate",
			fingerprints: DefaultFingerprints(),
			wantMismatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewTLSConfig(&TLSConfig{
				Fingerprints: tt.fingerprints,
				RootCAs:      testutil.RootPool(server),
				ServerName:   "127.0.0.1",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			conn, err := tls.Dial("tcp4", addr, cfg)
			if tt.wantMismatch {
				if !errors.Is(err, ErrFingerprintMismatch) {
					t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handshake failed: %v", err)
			}
			_ = conn.Close()
		})
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("expected no requests to reach the server, got %d", n)
	}
}

func TestTransportCredentials(t *testing.T) {
	creds, err := TransportCredentials(&TLSConfig{Fingerprints: DefaultFingerprints(), ServerName: "api.figo.me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Info().SecurityProtocol != "tls" {
		t.Errorf("expected tls security protocol, got %q", creds.Info().SecurityProtocol)
	}

	if _, err := TransportCredentials(&TLSConfig{}); err == nil {
		t.Error("expected error for empty fingerprint set")
	}
}
