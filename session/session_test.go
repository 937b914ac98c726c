package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/AmmannChristian/go-figo/oauth2client"
	"github.com/AmmannChristian/go-figo/testutil"
	"github.com/AmmannChristian/go-figo/transport"
)

func newFakeSession(t *testing.T, opts ...Option) (*testutil.FakeAPI, *testutil.MockAPIServer, *Session) {
	t.Helper()

	fake := testutil.NewFakeAPI()
	server := testutil.NewMockAPIServer(t, fake.Handler())
	s, err := New(server.Transport(t), fake.IssueAccessToken(), opts...)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return fake, server, s
}

func newMockSession(t *testing.T, handler http.Handler) (*testutil.MockAPIServer, *Session) {
	t.Helper()

	server := testutil.NewMockAPIServer(t, handler)
	s, err := New(server.Transport(t), "ASHWLIkouP2O6_bgA2wWReRhletgWKHYjLqDaqb0LFfamim9RjexTo22ujRIP_cjLiRiSyQXyt2kM1eXU2XLFZQ0Hro15HikJQT_eNeT_9XQ")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return server, s
}

func TestNew_Validation(t *testing.T) {
	tr := testutil.NewMockAPIServer(t, testutil.JSONResponse(200, "")).Transport(t)

	if _, err := New(tr, ""); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	if _, err := New(nil, "A1"); err == nil {
		t.Error("expected error for nil transport")
	}
	if _, err := NewWithTokenSource(tr, nil); err == nil {
		t.Error("expected error for nil token source")
	}
}

func TestSession_Call(t *testing.T) {
	_, server, s := newFakeSession(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		result, err := s.Call(ctx, "/rest/accounts/A1.1", nil, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var account Account
		found, err := result.Decode(&account)
		if err != nil || !found {
			t.Fatalf("expected account, got found=%v err=%v", found, err)
		}
		if account.Name != "Girokonto" {
			t.Errorf("unexpected account %+v", account)
		}

		req := server.Requests()[len(server.Requests())-1]
		if req.Method != http.MethodGet || req.Header.Get("Authorization") != "Bearer "+s.Token().AccessToken {
			t.Errorf("unexpected request %s with auth %q", req.Method, req.Header.Get("Authorization"))
		}
	})

	t.Run("not found is not an error", func(t *testing.T) {
		result, err := s.Call(ctx, "/rest/accounts/A9.9", nil, http.MethodGet)
		if err != nil {
			t.Fatalf("404 must not be an error: %v", err)
		}
		if result.Found() || result.Raw() != nil {
			t.Errorf("expected empty not-found result, got %+v", result)
		}

		account := Account{Name: "untouched"}
		found, err := result.Decode(&account)
		if found || err != nil || account.Name != "untouched" {
			t.Errorf("decode of not-found result: found=%v err=%v account=%+v", found, err, account)
		}
	})

	t.Run("empty success", func(t *testing.T) {
		result, err := s.Call(ctx, "/rest/accounts/A1.2", nil, http.MethodDelete)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found() || string(result.Raw()) != "{}" {
			t.Errorf("expected {} for empty success, got found=%v raw=%q", result.Found(), result.Raw())
		}
		var v map[string]any
		if found, err := result.Decode(&v); !found || err != nil || len(v) != 0 {
			t.Errorf("expected empty object, got %v (found=%v err=%v)", v, found, err)
		}
	})

	t.Run("idempotent get", func(t *testing.T) {
		first, err := s.Call(ctx, "/rest/accounts/A1.1", nil, http.MethodGet)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := s.Call(ctx, "/rest/accounts/A1.1", nil, http.MethodGet)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(first.Raw(), second.Raw()) {
			t.Errorf("repeated GET differs:\n%s\n%s", first.Raw(), second.Raw())
		}
	})

	t.Run("json body", func(t *testing.T) {
		if _, err := s.Call(ctx, "/rest/sync", map[string]string{"state": "x"}, http.MethodPost); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := server.Requests()[len(server.Requests())-1]
		if req.Header.Get("Content-Type") != "application/json" || string(req.Body) != `{"state":"x"}` {
			t.Errorf("unexpected body %q (%s)", req.Body, req.Header.Get("Content-Type"))
		}
	})
}

func TestSession_CallErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/payments", testutil.ErrorResponse(400, 1000, "invalid_request", "Invalid payment", "Amount missing"))
	mux.HandleFunc("/rest/user", testutil.JSONResponse(403, ""))
	mux.HandleFunc("/rest/accounts", testutil.JSONResponse(200, `{"accounts": [`))
	mux.HandleFunc("/rest/notifications", testutil.JSONResponse(503, `{"error":{}}`))
	_, s := newMockSession(t, mux)
	ctx := context.Background()

	_, err := s.Call(ctx, "/rest/payments", nil, "")
	apiErr, ok := transport.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 1000 || apiErr.Name != "invalid_request" || apiErr.Message != "Invalid payment" || apiErr.Description != "Amount missing" {
		t.Errorf("unexpected error fields %+v", apiErr)
	}

	if _, err := s.Call(ctx, "/rest/user", nil, ""); !transport.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := s.Call(ctx, "/rest/accounts", nil, ""); !transport.IsKind(err, transport.JSONError) {
		t.Errorf("expected json_error, got %v", err)
	}
	if _, err := s.Call(ctx, "/rest/notifications", nil, ""); !transport.IsRateLimited(err) {
		t.Errorf("expected service_unavailable, got %v", err)
	}
}

func TestSession_Unauthorized(t *testing.T) {
	fake := testutil.NewFakeAPI()
	server := testutil.NewMockAPIServer(t, fake.Handler())
	s, err := New(server.Transport(t), "Anot-issued")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	_, err = s.Accounts(context.Background())
	if !transport.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSession_SetToken(t *testing.T) {
	fake, server, s := newFakeSession(t)
	ctx := context.Background()

	s.SetToken(nil)
	s.SetToken(&oauth2client.TokenSet{})
	if s.Token() == nil || s.Token().AccessToken == "" {
		t.Fatal("empty token sets must be ignored")
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetToken(&oauth2client.TokenSet{AccessToken: fake.IssueAccessToken()})
		}()
		go func() {
			defer wg.Done()
			if _, err := s.User(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("call during token replacement failed: %v", err)
	}

	replacement := &oauth2client.TokenSet{AccessToken: fake.IssueAccessToken()}
	s.SetToken(replacement)
	if s.Token() != replacement {
		t.Fatal("expected token set to be replaced")
	}
	if _, err := s.User(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := server.Requests()[len(server.Requests())-1]
	if last.Header.Get("Authorization") != "Bearer "+replacement.AccessToken {
		t.Errorf("expected replaced token on the wire, got %q", last.Header.Get("Authorization"))
	}
}

func TestSession_TokenSource(t *testing.T) {
	fake := testutil.NewFakeAPI()
	server := testutil.NewMockAPIServer(t, fake.Handler())
	tr := server.Transport(t)

	t.Run("static", func(t *testing.T) {
		s, err := NewWithTokenSource(tr, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: fake.IssueAccessToken()}))
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if s.Token() != nil {
			t.Error("token source sessions hold no token set")
		}
		if _, err := s.User(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("token manager refreshes", func(t *testing.T) {
		client, err := oauth2client.NewClient(tr, oauth2client.Credentials{ClientID: fake.ClientID, ClientSecret: fake.ClientSecret})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		var refreshed *oauth2client.TokenSet
		tm, err := oauth2client.NewTokenManager(context.Background(), client, &oauth2client.TokenSet{
			AccessToken:  "Aexpired",
			RefreshToken: fake.IssueRefreshToken(),
			Expiry:       time.Now().Add(-time.Minute),
		}, oauth2client.WithOnRefresh(func(ts *oauth2client.TokenSet) { refreshed = ts }))
		if err != nil {
			t.Fatalf("failed to create token manager: %v", err)
		}

		s, err := NewWithTokenSource(tr, tm)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		accounts, err := s.Accounts(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}
		if refreshed == nil {
			t.Fatal("expected a refresh")
		}
		last := server.Requests()[len(server.Requests())-1]
		if last.Header.Get("Authorization") != "Bearer "+refreshed.AccessToken {
			t.Errorf("expected refreshed token on the wire, got %q", last.Header.Get("Authorization"))
		}
	})

	t.Run("source failure", func(t *testing.T) {
		client, err := oauth2client.NewClient(tr, oauth2client.Credentials{ClientID: fake.ClientID, ClientSecret: fake.ClientSecret})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		tm, err := oauth2client.NewTokenManager(context.Background(), client, &oauth2client.TokenSet{AccessToken: "A1", Expiry: time.Now()})
		if err != nil {
			t.Fatalf("failed to create token manager: %v", err)
		}
		s, err := NewWithTokenSource(tr, tm)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if _, err := s.Call(context.Background(), "/rest/user", nil, ""); !errors.Is(err, oauth2client.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

// TestLoginRoundTrip walks the authorization code flow end to end: login URL,
// browser redirect carrying code and state, exchange and an authenticated call.
func TestLoginRoundTrip(t *testing.T) {
	fake := testutil.NewFakeAPI()
	server := testutil.NewMockAPIServer(t, fake.Handler())
	tr := server.Transport(t)
	ctx := context.Background()

	client, err := oauth2client.NewClient(tr, oauth2client.Credentials{
		ClientID:     fake.ClientID,
		ClientSecret: fake.ClientSecret,
		RedirectURI:  fake.RedirectURI,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	browser := server.Client()
	browser.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := browser.Get(client.LoginURL("qweqwe", "accounts=ro transactions=ro"))
	if err != nil {
		t.Fatalf("authorization request failed: %v", err)
	}
	_ = resp.Body.Close()

	callback, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	if callback.Query().Get("state") != "qweqwe" {
		t.Fatalf("state mismatch: %q", callback.Query().Get("state"))
	}

	tokens, err := client.ExchangeToken(ctx, callback.Query().Get("code"), "")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	s, err := New(tr, tokens.AccessToken)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	user, err := s.User(ctx)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if user.Email != fake.Username {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestResult_DecodeError(t *testing.T) {
	result := Result{found: true, raw: json.RawMessage(`{"accounts": 1}`)}

	var v struct {
		Accounts []Account `json:"accounts"`
	}
	found, err := result.Decode(&v)
	if !found || !transport.IsKind(err, transport.JSONError) {
		t.Errorf("expected json_error for mismatched type, got found=%v err=%v", found, err)
	}

	if found, err := result.Decode(nil); !found || err != nil {
		t.Errorf("nil target should only report presence, got found=%v err=%v", found, err)
	}
}
