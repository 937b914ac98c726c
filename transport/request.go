package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Encoding selects how RequestSpec.Body is serialized.
type Encoding int

const (
	// EncodingJSON marshals the body with encoding/json.
	EncodingJSON Encoding = iota
	// EncodingForm encodes url.Values or map[string]string as
	// application/x-www-form-urlencoded.
	EncodingForm
)

func (e Encoding) contentType() string {
	if e == EncodingForm {
		return "application/x-www-form-urlencoded"
	}
	return "application/json"
}

// RequestSpec describes a single call. It is built per call and not reused.
type RequestSpec struct {
	// Path is relative to the endpoint's base path and may carry a query string.
	Path string

	// Method defaults to GET.
	Method string

	// Body is encoded according to Encoding. Nil means no body.
	Body     any
	Encoding Encoding

	// Header carries extra headers such as Authorization.
	Header http.Header
}

func (r RequestSpec) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r RequestSpec) validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("transport: request path %q must start with '/'", r.Path)
	}
	if strings.ContainsAny(r.Path, " \r\n") {
		return fmt.Errorf("transport: request path %q contains whitespace", r.Path)
	}
	if strings.ContainsAny(r.method(), " \r\n") {
		return fmt.Errorf("transport: invalid request method %q", r.Method)
	}
	return nil
}

func (r RequestSpec) encodeBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	switch r.Encoding {
	case EncodingForm:
		switch v := r.Body.(type) {
		case url.Values:
			return []byte(v.Encode()), nil
		case map[string]string:
			values := make(url.Values, len(v))
			for key, val := range v {
				values.Set(key, val)
			}
			return []byte(values.Encode()), nil
		case string:
			return []byte(v), nil
		default:
			return nil, fmt.Errorf("unsupported form body type %T", r.Body)
		}
	default:
		if raw, ok := r.Body.(json.RawMessage); ok {
			return raw, nil
		}
		return json.Marshal(r.Body)
	}
}

// headers assembles the final header set. Host, Accept, User-Agent and
// Connection cannot be overridden by the caller.
func (r RequestSpec) headers(host, userAgent string, body []byte) http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Host", host)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", userAgent)
	h.Set("Connection", "close")
	h.Set("Content-Type", r.Encoding.contentType())
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return h
}

// serialize renders the HTTP/1.1 request exactly as written to the socket.
func serialize(method, target string, header http.Header, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(256 + len(body))

	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", method, target)
	// Host first.
	fmt.Fprintf(&buf, "Host: %s\r\n", header.Get("Host"))
	rest := header.Clone()
	rest.Del("Host")
	if err := rest.Write(&buf); err != nil {
		return nil, err
	}
	buf.WriteString("\r\n")
	buf.Write(body)

	return buf.Bytes(), nil
}
