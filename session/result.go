package session

import (
	"encoding/json"
	"fmt"

	"github.com/AmmannChristian/go-figo/transport"
)

// emptyObject stands in for a successful call without payload.
var emptyObject = json.RawMessage(`{}`)

// Result is the outcome of a successful Call: either a JSON document or the
// absence of the requested resource.
type Result struct {
	found bool
	raw   json.RawMessage
}

func newResult(o *transport.Outcome) Result {
	if !o.Found {
		return Result{}
	}
	if o.Empty() {
		return Result{found: true, raw: emptyObject}
	}
	return Result{found: true, raw: o.Body}
}

// Found reports whether the resource exists. It is false only for 404.
func (r Result) Found() bool {
	return r.found
}

// Raw returns the JSON document, "{}" for an empty success and nil when the
// resource was not found.
func (r Result) Raw() json.RawMessage {
	return r.raw
}

// Decode unmarshals the document into v and reports whether there was one.
// v is left untouched when the resource was not found. A nil v only reports
// presence.
func (r Result) Decode(v any) (bool, error) {
	if !r.found {
		return false, nil
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal(r.raw, v); err != nil {
		return true, &transport.Error{Kind: transport.JSONError, Detail: fmt.Sprintf("cannot decode into %T", v), Err: err}
	}
	return true, nil
}
