package httpclient

import (
	"errors"
	"net/http"
	"time"

	"github.com/AmmannChristian/go-figo/transport"
)

// Builder constructs an *http.Client that reaches the API through the same
// pinned TLS configuration as a transport.Transport.
type Builder struct {
	tr     *transport.Transport
	tokens TokenProvider

	// HTTP client configuration
	timeout         time.Duration
	keepAlive       bool
	followRedirects bool
}

// NewBuilder creates a builder for clients talking to tr's endpoint.
func NewBuilder(tr *transport.Transport) *Builder {
	return &Builder{
		tr:      tr,
		timeout: transport.DefaultTimeout,
	}
}

// WithTokenProvider adds a Bearer token from p to every request, for example
// an *oauth2client.TokenManager.
func (b *Builder) WithTokenProvider(p TokenProvider) *Builder {
	b.tokens = p
	return b
}

// WithAccessToken adds a fixed Bearer token to every request.
func (b *Builder) WithAccessToken(token string) *Builder {
	b.tokens = StaticToken(token)
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 60 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithKeepAlive lets the client reuse connections. The fingerprint is then
// checked once per connection instead of once per request.
func (b *Builder) WithKeepAlive() *Builder {
	b.keepAlive = true
	return b
}

// WithRedirects enables following redirects. The API never redirects
// authenticated calls, so they are returned to the caller by default.
func (b *Builder) WithRedirects() *Builder {
	b.followRedirects = true
	return b
}

// Build constructs the HTTP client with the configured options.
func (b *Builder) Build() (*http.Client, error) {
	if b.tr == nil {
		return nil, errors.New("httpclient: transport is nil")
	}

	var base *http.Transport
	if httpTransport, ok := http.DefaultTransport.(*http.Transport); ok {
		base = httpTransport.Clone()
	} else {
		base = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	base.TLSClientConfig = b.tr.TLSConfig()
	base.DisableKeepAlives = !b.keepAlive

	rt := NewAPITransport(b.tokens, base)
	rt.UserAgent = b.tr.UserAgent()

	client := &http.Client{
		Transport: rt,
		Timeout:   b.timeout,
	}
	if !b.followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}
