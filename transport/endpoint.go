package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const defaultTLSPort = 443

// Endpoint identifies the API server. The scheme is always https.
type Endpoint struct {
	Host string
	Port int

	// BasePath is prefixed to every request path. It has no trailing slash.
	BasePath string
}

// ParseEndpoint accepts "api.figo.me", "https://api.figo.me/v3" or
// "localhost:8443/base". Any scheme other than https is rejected.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return Endpoint{}, errors.New("transport: endpoint is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("transport: parse endpoint: %w", err)
	}
	if u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("transport: endpoint scheme must be https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("transport: endpoint %q has no host", raw)
	}

	port := defaultTLSPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("transport: invalid endpoint port %q", p)
		}
	}

	return Endpoint{
		Host:     u.Hostname(),
		Port:     port,
		BasePath: strings.TrimRight(u.EscapedPath(), "/"),
	}, nil
}

// MustParseEndpoint is like ParseEndpoint but panics on error.
func MustParseEndpoint(raw string) Endpoint {
	ep, err := ParseEndpoint(raw)
	if err != nil {
		panic(err)
	}
	return ep
}

// Address returns host:port for dialing.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.port()))
}

// HostHeader returns the value of the Host header, omitting the default port.
func (e Endpoint) HostHeader() string {
	if e.port() == defaultTLSPort {
		if strings.Contains(e.Host, ":") {
			return "[" + e.Host + "]"
		}
		return e.Host
	}
	return e.Address()
}

// RequestPath joins the base path with path.
func (e Endpoint) RequestPath(path string) string {
	return e.BasePath + path
}

// URL returns the absolute URL of path on this endpoint.
func (e Endpoint) URL(path string) string {
	return "https://" + e.HostHeader() + e.RequestPath(path)
}

func (e Endpoint) String() string {
	return e.URL("")
}

func (e Endpoint) port() int {
	if e.Port == 0 {
		return defaultTLSPort
	}
	return e.Port
}
