package testutil

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	itestutil "github.com/AmmannChristian/go-figo/internal/testutil"
	"github.com/AmmannChristian/go-figo/pinning"
	"github.com/AmmannChristian/go-figo/transport"
)

// RecordedRequest is a request as seen by MockAPIServer.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// MockAPIServer is a local HTTPS server that records every request it receives.
type MockAPIServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockAPIServer starts a TLS server on 127.0.0.1 serving handler. The
// server is closed when the test ends.
func NewMockAPIServer(tb testing.TB, handler http.Handler) *MockAPIServer {
	tb.Helper()

	m := &MockAPIServer{}
	m.Server = itestutil.NewLocalTLSServer(tb, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		m.mu.Unlock()

		handler.ServeHTTP(w, r)
	}))

	return m
}

// Requests returns a copy of the recorded requests.
func (m *MockAPIServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Fingerprint returns the pin of the server certificate.
func (m *MockAPIServer) Fingerprint() pinning.Fingerprint {
	return pinning.Of(m.Certificate())
}

// Config returns a transport configuration that trusts and pins this server.
func (m *MockAPIServer) Config() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Endpoint = transport.MustParseEndpoint(m.URL)
	cfg.Fingerprints = pinning.MustFingerprintSet(string(m.Fingerprint()))
	cfg.RootCAs = itestutil.RootPool(m.Server)
	return cfg
}

// WriteCAFile stores the server certificate as a PEM bundle in a temporary
// directory and returns its path.
func (m *MockAPIServer) WriteCAFile(tb testing.TB) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "ca.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: m.Certificate().Raw}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		tb.Fatalf("failed to write CA file: %v", err)
	}
	return path
}

// Transport builds a Transport for this server.
func (m *MockAPIServer) Transport(tb testing.TB, opts ...transport.Option) *transport.Transport {
	tb.Helper()

	tr, err := transport.New(m.Config(), opts...)
	if err != nil {
		tb.Fatalf("failed to create transport: %v", err)
	}
	return tr
}

// JSONResponse returns a handler that always answers with status and body.
func JSONResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// ErrorResponse returns a handler answering with an API error envelope.
func ErrorResponse(status, code int, name, message, description string) http.HandlerFunc {
	body := fmt.Sprintf(`{"error":{"code":%d,"name":%q,"message":%q,"description":%q}}`,
		code, name, message, description)
	return JSONResponse(status, body)
}
