package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TaskProgressPath is the long-poll endpoint for synchronization tasks. Its
// successful responses are logged at Debug unless the task reports an error.
const TaskProgressPath = "/task/progress"

const authPathPrefix = "/auth/"

// headerFields renders headers as a zap object with credentials masked.
type headerFields http.Header

func (h headerFields) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := strings.Join(h[k], ", ")
		if http.CanonicalHeaderKey(k) == "Authorization" {
			v = redactCredentials(v)
		}
		enc.AddString(k, v)
	}
	return nil
}

func redactCredentials(v string) string {
	scheme, _, found := strings.Cut(v, " ")
	if !found {
		return "***"
	}
	return scheme + " ***"
}

func (t *Transport) record(spec RequestSpec, header http.Header, status int, body []byte, outcome *Outcome, err error, elapsed time.Duration) {
	if t.metrics != nil {
		t.metrics.observe(spec.method(), outcomeLabel(outcome, err), elapsed)
	}

	fields := []zap.Field{
		zap.String("method", spec.method()),
		zap.String("path", spec.Path),
		zap.Object("headers", headerFields(header)),
		zap.Duration("duration", elapsed),
	}
	if status != 0 {
		fields = append(fields, zap.Int("status", status))
	}
	switch {
	case len(body) == 0:
	case strings.HasPrefix(spec.Path, authPathPrefix):
		// Token responses carry credentials.
		fields = append(fields, zap.Int("body_bytes", len(body)))
	default:
		fields = append(fields, zap.ByteString("body", body))
	}

	if err != nil {
		t.logger.Info("figo request failed", append(fields, zap.Error(err))...)
		return
	}

	if isTaskProgress(spec.Path) && taskErroneous(outcome.Body) {
		t.logger.Warn("figo task reported an error", fields...)
		return
	}
	t.logger.Debug("figo request", fields...)
}

func isTaskProgress(path string) bool {
	p, _, _ := strings.Cut(path, "?")
	return p == TaskProgressPath
}

func taskErroneous(body json.RawMessage) bool {
	if len(body) == 0 {
		return false
	}
	var state struct {
		IsErroneous bool `json:"is_erroneous"`
	}
	return json.Unmarshal(body, &state) == nil && state.IsErroneous
}

func outcomeLabel(outcome *Outcome, err error) string {
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			return string(te.Kind)
		}
		if _, ok := AsAPIError(err); ok {
			return "api_error"
		}
		return "invalid_request"
	}
	if !outcome.Found {
		return "not_found"
	}
	return "success"
}
