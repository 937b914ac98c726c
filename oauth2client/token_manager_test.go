package oauth2client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewTokenManager_Validation(t *testing.T) {
	_, _, client := newFakeClient(t)

	tests := []struct {
		name    string
		client  *Client
		initial *TokenSet
	}{
		{name: "nil client", client: nil, initial: &TokenSet{AccessToken: "A1"}},
		{name: "nil token set", client: client, initial: nil},
		{name: "empty token set", client: client, initial: &TokenSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenManager(context.Background(), tt.client, tt.initial); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTokenManager_ValidTokenIsCached(t *testing.T) {
	_, server, client := newFakeClient(t)

	initial := &TokenSet{AccessToken: "A0001", RefreshToken: "R0002", Expiry: time.Now().Add(time.Hour)}
	//nolint:staticcheck // nil context is accepted and replaced with Background.
	tm, err := NewTokenManager(nil, client, initial)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	for i := 0; i < 3; i++ {
		token, err := tm.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "A0001" {
			t.Errorf("expected cached token, got %q", token)
		}
	}
	if n := len(server.Requests()); n != 0 {
		t.Errorf("expected no refresh, got %d requests", n)
	}
}

func TestTokenManager_RefreshesOnceConcurrently(t *testing.T) {
	fake, server, client := newFakeClient(t)

	refresh := fake.IssueRefreshToken()
	initial := &TokenSet{AccessToken: "Aexpired", RefreshToken: refresh, Expiry: time.Now().Add(30 * time.Second)}

	var refreshed atomic.Int32
	var last atomic.Pointer[TokenSet]
	tm, err := NewTokenManager(context.Background(), client, initial,
		WithRefreshScope("accounts=ro"),
		WithOnRefresh(func(ts *TokenSet) {
			refreshed.Add(1)
			last.Store(ts)
		}),
	)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = tm.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if tokens[i] != tokens[0] || tokens[i] == "Aexpired" {
			t.Errorf("worker %d got %q, expected a single refreshed token", i, tokens[i])
		}
	}

	if n := len(server.Requests()); n != 1 {
		t.Errorf("expected exactly one refresh request, got %d", n)
	}
	if n := refreshed.Load(); n != 1 {
		t.Errorf("expected one refresh callback, got %d", n)
	}

	current := tm.TokenSet()
	if current != last.Load() {
		t.Error("callback should receive the stored token set")
	}
	if current.RefreshToken != refresh {
		t.Errorf("refresh token should be carried over, got %q", current.RefreshToken)
	}
	if initial.AccessToken != "Aexpired" {
		t.Error("initial token set must not be modified")
	}
}

func TestTokenManager_NoRefreshToken(t *testing.T) {
	_, _, client := newFakeClient(t)

	tm, err := NewTokenManager(context.Background(), client, &TokenSet{
		AccessToken: "A0001",
		Expiry:      time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	if _, err := tm.AccessToken(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
}

func TestTokenManager_RefreshFailure(t *testing.T) {
	_, _, client := newFakeClient(t)

	tm, err := NewTokenManager(context.Background(), client, &TokenSet{RefreshToken: "Runknown"})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	if _, err := tm.AccessToken(context.Background()); err == nil {
		t.Fatal("expected refresh error for unknown refresh token")
	}
	if tm.TokenSet().RefreshToken != "Runknown" {
		t.Error("failed refresh must keep the previous token set")
	}
}

func TestTokenManager_ExpiryLeeway(t *testing.T) {
	fake, server, client := newFakeClient(t)

	initial := &TokenSet{AccessToken: "A0001", RefreshToken: fake.IssueRefreshToken(), Expiry: time.Now().Add(30 * time.Second)}
	tm, err := NewTokenManager(context.Background(), client, initial, WithExpiryLeeway(10*time.Second))
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	token, err := tm.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "A0001" || len(server.Requests()) != 0 {
		t.Errorf("token outside the leeway should not be refreshed")
	}
}

func TestTokenManager_TokenSource(t *testing.T) {
	_, _, client := newFakeClient(t)

	expiry := time.Now().Add(time.Hour)
	tm, err := NewTokenManager(context.Background(), client, &TokenSet{
		AccessToken:  "A0001",
		RefreshToken: "R0002",
		Scope:        "accounts=ro",
		Expiry:       expiry,
	})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	tok, err := tm.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "A0001" || tok.TokenType != "Bearer" || !tok.Expiry.Equal(expiry) {
		t.Errorf("unexpected oauth2 token %+v", tok)
	}
	if scope, _ := tok.Extra("scope").(string); scope != "accounts=ro" {
		t.Errorf("expected scope extra, got %v", tok.Extra("scope"))
	}
	if !tok.Valid() {
		t.Error("token should be valid")
	}
}

func TestTokenManager_PerRPCCredentials(t *testing.T) {
	_, _, client := newFakeClient(t)

	tm, err := NewTokenManager(context.Background(), client, &TokenSet{AccessToken: "A0001", Expiry: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	creds := tm.PerRPCCredentials()
	if !creds.RequireTransportSecurity() {
		t.Error("bearer credentials must require transport security")
	}

	md, err := creds.GetRequestMetadata(context.Background(), "https://api.figo.me/figo.Accounts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md["authorization"] != "Bearer A0001" {
		t.Errorf("unexpected metadata %v", md)
	}

	expired, err := NewTokenManager(context.Background(), client, &TokenSet{AccessToken: "A0001", Expiry: time.Now()})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	if _, err := expired.PerRPCCredentials().GetRequestMetadata(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("expected ErrNoRefreshToken, got %v", err)
	}
}
