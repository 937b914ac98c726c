package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// Outcome is a successfully classified response. Failures are reported as
// *APIError or *Error instead.
type Outcome struct {
	Status int

	// Found is false only for 404 responses.
	Found bool

	// Body holds the validated JSON payload, nil when the server sent none.
	Body json.RawMessage
}

// Empty reports a success without payload.
func (o *Outcome) Empty() bool {
	return o.Found && len(o.Body) == 0
}

// parseResponse splits a raw HTTP/1.1 response into status and body. The
// connection has been read to EOF, so chunked and length-delimited bodies are
// both complete.
func parseResponse(raw []byte, method string) (int, []byte, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), &http.Request{Method: method})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func classify(status int, body []byte) (*Outcome, error) {
	switch {
	case status >= 200 && status < 300:
		if len(bytes.TrimSpace(body)) == 0 {
			return &Outcome{Status: status, Found: true}, nil
		}
		if !json.Valid(body) {
			return nil, &Error{Kind: JSONError, Detail: "Cannot decode JSON object."}
		}
		return &Outcome{Status: status, Found: true, Body: json.RawMessage(body)}, nil

	case status == http.StatusNotFound:
		return &Outcome{Status: status, Found: false}, nil

	case status == http.StatusServiceUnavailable:
		return nil, serviceUnavailable()

	case status >= 400 && status < 500:
		return nil, decodeAPIError(status, body)

	default:
		return nil, internalServerError(status)
	}
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

func decodeAPIError(status int, body []byte) error {
	var envelope errorEnvelope
	err := json.Unmarshal(body, &envelope)
	if err == nil && envelope.Error != nil && envelope.Error.Name != "" {
		envelope.Error.HTTPStatus = status
		return envelope.Error
	}

	if fallback, ok := statusFallbacks[status]; ok {
		fallback.HTTPStatus = status
		return &fallback
	}
	if err == nil {
		return &Error{Kind: JSONError, Detail: "error response without named error object"}
	}
	return &Error{Kind: JSONError, Detail: "Cannot decode JSON object.", Err: err}
}
