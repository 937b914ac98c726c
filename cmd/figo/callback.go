package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type callbackResult struct {
	code string
	err  error
}

// newCallbackHandler serves the OAuth redirect. The first request carrying
// the expected state is delivered to results; later ones are ignored.
func newCallbackHandler(state string, results chan<- callbackResult) http.Handler {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if reason := q.Get("error"); reason != "" {
			deliver(callbackResult{err: fmt.Errorf("authorization failed: %s %s", reason, q.Get("error_description"))})
			fmt.Fprintln(w, "Login failed. You can close this window.")
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		deliver(callbackResult{code: code})
		fmt.Fprintln(w, "Login complete. You can close this window.")
	})
	return r
}

type callbackServer struct {
	ln      net.Listener
	srv     *http.Server
	results chan callbackResult
}

func startCallbackServer(listen, state string) (*callbackServer, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("callback listener: %w", err)
	}
	results := make(chan callbackResult, 1)
	c := &callbackServer{
		ln:      ln,
		results: results,
		srv: &http.Server{
			Handler:           newCallbackHandler(state, results),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	return c, nil
}

// redirectURI is the address the authorization server has to send the
// browser back to.
func (c *callbackServer) redirectURI() string {
	return "http://" + c.ln.Addr().String() + "/callback"
}

func (c *callbackServer) wait(ctx context.Context) (string, error) {
	select {
	case res := <-c.results:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for login: %w", ctx.Err())
	}
}

func (c *callbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.srv.Shutdown(ctx)
}
