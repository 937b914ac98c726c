package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrUnknownTask is returned when the server does not know a task token.
var ErrUnknownTask = errors.New("session: unknown task")

// TaskToken identifies a server-side synchronization or submission task.
type TaskToken string

// TaskState is the progress of a task as reported by /task/progress.
type TaskState struct {
	AccountID            string `json:"account_id,omitempty"`
	Message              string `json:"message,omitempty"`
	IsWaitingForPIN      bool   `json:"is_waiting_for_pin,omitempty"`
	IsWaitingForResponse bool   `json:"is_waiting_for_response,omitempty"`
	IsErroneous          bool   `json:"is_erroneous,omitempty"`
	IsEnded              bool   `json:"is_ended,omitempty"`
}

// TaskError reports a task that ended in an error state.
type TaskError struct {
	Token TaskToken
	State TaskState
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("session: task %s failed: %s", e.Token, e.State.Message)
}

// SyncRequest starts a synchronization of the user's accounts.
type SyncRequest struct {
	State       string `json:"state"`
	RedirectURI string `json:"redirect_uri,omitempty"`

	// AccountIDs limits the sync to these accounts. Empty means all.
	AccountIDs           []string `json:"account_ids,omitempty"`
	DisableNotifications bool     `json:"disable_notifications,omitempty"`

	// IfNotSyncedSince skips accounts synced within this many minutes.
	IfNotSyncedSince int `json:"if_not_synced_since,omitempty"`
}

// StartSync creates a synchronization task.
func (s *Session) StartSync(ctx context.Context, req SyncRequest) (TaskToken, error) {
	return s.startTask(ctx, "/rest/sync", req)
}

func (s *Session) startTask(ctx context.Context, path string, data any) (TaskToken, error) {
	var resp struct {
		TaskToken TaskToken `json:"task_token"`
	}
	found, err := s.do(ctx, path, data, http.MethodPost, &resp)
	if err != nil {
		return "", err
	}
	if !found || resp.TaskToken == "" {
		return "", fmt.Errorf("session: %s returned no task token", path)
	}
	return resp.TaskToken, nil
}

// SyncURL is the page where the user follows a task and enters PINs or
// TANs.
func (s *Session) SyncURL(token TaskToken) string {
	return s.tr.Endpoint().URL("/task/start?id=" + url.QueryEscape(string(token)))
}

// TaskInput answers a task that waits for the user.
type TaskInput struct {
	PIN      string
	SavePIN  bool
	Continue bool

	// Response answers a challenge.
	Response string
}

func (in TaskInput) body(token TaskToken) map[string]any {
	body := map[string]any{
		"id":       string(token),
		"save_pin": boolFlag(in.SavePIN),
		"continue": boolFlag(in.Continue),
	}
	if in.PIN != "" {
		body["pin"] = in.PIN
	}
	if in.Response != "" {
		body["response"] = in.Response
	}
	return body
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TaskState polls the progress of a task once.
func (s *Session) TaskState(ctx context.Context, token TaskToken, in TaskInput) (TaskState, error) {
	var state TaskState
	found, err := s.do(ctx, taskPath("progress", token), in.body(token), http.MethodPost, &state)
	if err != nil {
		return TaskState{}, err
	}
	if !found {
		return TaskState{}, fmt.Errorf("%w: %s", ErrUnknownTask, token)
	}
	return state, nil
}

// CancelTask stops a running task on the server.
func (s *Session) CancelTask(ctx context.Context, token TaskToken) error {
	result, err := s.Call(ctx, taskPath("cancel", token), map[string]string{"id": string(token)}, http.MethodPost)
	if err != nil {
		return err
	}
	if !result.Found() {
		return fmt.Errorf("%w: %s", ErrUnknownTask, token)
	}
	return nil
}

func taskPath(action string, token TaskToken) string {
	return "/task/" + action + "?id=" + url.QueryEscape(string(token))
}

type waitOptions struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	timeout         time.Duration
	onProgress      func(TaskState)
}

// newWaitOptions applies opts to the defaults. The largest delay never drops
// below the first one.
func newWaitOptions(opts []WaitOption) waitOptions {
	o := waitOptions{initialInterval: time.Second, maxInterval: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	o.maxInterval = max(o.maxInterval, o.initialInterval)
	return o
}

// WaitOption configures WaitForTask.
type WaitOption func(*waitOptions)

// WithPollInterval sets the first and the largest delay between polls.
// Default: 1s growing to 5s
func WithPollInterval(initial, maxInterval time.Duration) WaitOption {
	return func(o *waitOptions) {
		if initial > 0 {
			o.initialInterval = initial
		}
		if maxInterval >= o.initialInterval {
			o.maxInterval = maxInterval
		}
	}
}

// WithWaitTimeout bounds the total wait. Zero waits until ctx is done.
func WithWaitTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
	}
}

// WithProgress is called with every polled state.
func WithProgress(fn func(TaskState)) WaitOption {
	return func(o *waitOptions) {
		o.onProgress = fn
	}
}

var errTaskRunning = errors.New("task still running")

// WaitForTask polls a task until it ends. An erroneous task is returned
// together with a *TaskError. Request failures end the wait immediately.
// Canceling ctx stops polling but not the task; use CancelTask for that.
func (s *Session) WaitForTask(ctx context.Context, token TaskToken, opts ...WaitOption) (TaskState, error) {
	o := newWaitOptions(opts)

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = o.initialInterval
	expBackoff.MaxInterval = o.maxInterval
	expBackoff.MaxElapsedTime = o.timeout

	var state TaskState
	polls := 0
	err := backoff.Retry(func() error {
		polls++
		st, err := s.TaskState(ctx, token, TaskInput{})
		if err != nil {
			return backoff.Permanent(err)
		}
		state = st
		s.logger.Debug("figo task progress",
			zap.String("task", string(token)),
			zap.Int("poll", polls),
			zap.String("message", st.Message),
			zap.Bool("ended", st.IsEnded),
		)
		if o.onProgress != nil {
			o.onProgress(st)
		}
		if st.IsEnded || st.IsErroneous {
			return nil
		}
		return errTaskRunning
	}, backoff.WithContext(expBackoff, ctx))

	switch {
	case errors.Is(err, errTaskRunning):
		return state, fmt.Errorf("session: task %s still running after %s", token, o.timeout)
	case err != nil:
		return state, err
	case state.IsErroneous:
		return state, &TaskError{Token: token, State: state}
	}
	return state, nil
}
