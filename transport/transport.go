package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AmmannChristian/go-figo/pinning"
)

// Transport sends requests to the API over a fresh, pinned TLS connection
// per call. It holds no per-call state and is safe for concurrent use.
type Transport struct {
	endpoint       Endpoint
	tlsConfig      *tls.Config
	connectTimeout time.Duration
	readTimeout    time.Duration
	userAgent      string
	logger         *zap.Logger
	metrics        *Metrics
}

// Option is a functional option for configuring Transport.
type Option func(*Transport)

// WithLogger sets the logger used for per-call records.
// If not set, no logging will occur.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics records per-call counters and latencies.
func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

// New creates a Transport from cfg.
func New(cfg Config, opts ...Option) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	tlsConfig, err := pinning.NewTLSConfig(&pinning.TLSConfig{
		Fingerprints:   cfg.Fingerprints,
		CAFile:         cfg.CAFile,
		RootCAs:        cfg.RootCAs,
		ServerName:     cfg.Endpoint.Host,
		DisablePinning: cfg.DisablePinning,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	t := &Transport{
		endpoint:       cfg.Endpoint,
		tlsConfig:      tlsConfig,
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		userAgent:      cfg.UserAgent,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Endpoint returns the configured endpoint.
func (t *Transport) Endpoint() Endpoint {
	return t.endpoint
}

// TLSConfig returns a copy of the pinned TLS configuration used for every
// connection.
func (t *Transport) TLSConfig() *tls.Config {
	return t.tlsConfig.Clone()
}

// UserAgent returns the User-Agent sent with every request.
func (t *Transport) UserAgent() string {
	return t.userAgent
}

// Do performs one request and classifies the response.
//
// Returns:
//   - *Outcome: on 2xx (Found=true) and 404 (Found=false)
//   - *APIError: when the server reports an error
//   - *Error: on socket, pinning or JSON failures
func (t *Transport) Do(ctx context.Context, spec RequestSpec) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := spec.validate(); err != nil {
		t.record(spec, nil, 0, nil, nil, err, time.Since(start))
		return nil, err
	}
	method := spec.method()

	body, err := spec.encodeBody()
	if err != nil {
		err = &Error{Kind: JSONError, Detail: "cannot encode request body", Err: err}
		t.record(spec, nil, 0, nil, nil, err, time.Since(start))
		return nil, err
	}
	header := spec.headers(t.endpoint.HostHeader(), t.userAgent, body)

	status, respBody, err := t.exchange(ctx, method, t.endpoint.RequestPath(spec.Path), header, body)
	if err != nil {
		t.record(spec, header, 0, nil, nil, err, time.Since(start))
		return nil, err
	}

	outcome, err := classify(status, respBody)
	t.record(spec, header, status, respBody, outcome, err, time.Since(start))
	return outcome, err
}

// exchange dials, writes the request and reads the whole response.
func (t *Transport) exchange(ctx context.Context, method, target string, header http.Header, body []byte) (int, []byte, error) {
	payload, err := serialize(method, target, header, body)
	if err != nil {
		return 0, nil, &Error{Kind: SocketError, Detail: "cannot serialize request", Err: err}
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: t.connectTimeout},
		Config:    t.tlsConfig,
	}
	conn, err := dialer.DialContext(ctx, "tcp", t.endpoint.Address())
	if err != nil {
		if errors.Is(err, pinning.ErrFingerprintMismatch) {
			return 0, nil, &Error{Kind: SSLError, Detail: "SSL/TLS certificate fingerprint mismatch.", Err: err}
		}
		return 0, nil, &Error{Kind: SocketError, Detail: "cannot connect to " + t.endpoint.Address(), Err: ctxErr(ctx, err)}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, nil, &Error{Kind: SocketError, Detail: "cannot set deadline", Err: err}
	}
	// Unblock reads and writes when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return 0, nil, &Error{Kind: SocketError, Detail: "cannot write request", Err: ctxErr(ctx, err)}
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return 0, nil, &Error{Kind: SocketError, Detail: "cannot read response", Err: ctxErr(ctx, err)}
	}

	status, respBody, err := parseResponse(raw, method)
	if err != nil {
		return 0, nil, &Error{Kind: SocketError, Detail: "malformed HTTP response", Err: err}
	}
	return status, respBody, nil
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}
