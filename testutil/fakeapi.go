package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// FakeAPI is an in-memory imitation of the figo Connect auth and REST
// endpoints, good enough to drive complete login flows in tests.
//
// Authorization codes start with "O", refresh tokens with "R" and access
// tokens with "A", matching the production token formats.
type FakeAPI struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Username     string
	Password     string

	// TaskPolls is the number of progress polls before a task reports is_ended.
	TaskPolls int

	mu       sync.Mutex
	seq      int
	codes    map[string]string
	access   map[string]bool
	refresh  map[string]bool
	tasks    map[string]int
	accounts []map[string]any
}

// NewFakeAPI returns a FakeAPI with demo credentials and two accounts.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		ClientID:     "CaESKmC8MAhNpDe5rvmWnSkRE_7pkkVIIgMwclgzGcQY",
		ClientSecret: "STdzfv0GXtEj_bwYn7AgCVszN1kKq5BdgEIKOM_fzybQ",
		RedirectURI:  "https://localhost/callback",
		Username:     "demo@figo.me",
		Password:     "demo1234",
		TaskPolls:    2,
		codes:        make(map[string]string),
		access:       make(map[string]bool),
		refresh:      make(map[string]bool),
		tasks:        make(map[string]int),
		accounts: []map[string]any{
			{"account_id": "A1.1", "bank_id": "B1.1", "name": "Girokonto", "currency": "EUR"},
			{"account_id": "A1.2", "bank_id": "B1.1", "name": "Sparkonto", "currency": "EUR"},
		},
	}
}

// Handler returns the HTTP routes of the fake.
func (f *FakeAPI) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/auth/code", f.authorize)
	r.Post("/auth/token", f.clientAuth(f.token))
	r.Post("/auth/revoke", f.clientAuth(f.revoke))
	r.Post("/auth/user", f.clientAuth(f.createUser))
	r.Get("/catalog", f.clientAuth(f.catalog))
	r.Get("/catalog/{kind}", f.clientAuth(f.catalog))

	r.Group(func(r chi.Router) {
		r.Use(f.bearerAuth)
		r.Get("/rest/user", f.user)
		r.Get("/rest/accounts", f.listAccounts)
		r.Get("/rest/accounts/{id}", f.getAccount)
		r.Delete("/rest/accounts/{id}", f.deleteAccount)
		r.Get("/rest/accounts/{id}/balance", f.balance)
		r.Get("/rest/transactions", f.transactions)
		r.Get("/rest/accounts/{id}/transactions", f.transactions)
		r.Post("/rest/sync", f.startSync)
		r.Post("/task/progress", f.progress)
		r.Post("/task/cancel", f.cancel)
	})

	return r
}

// IssueAccessToken mints a valid access token without going through a grant.
func (f *FakeAPI) IssueAccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mintLocked("A", f.access)
}

// IssueRefreshToken mints a valid refresh token.
func (f *FakeAPI) IssueRefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mintLocked("R", f.refresh)
}

func (f *FakeAPI) mintLocked(prefix string, into map[string]bool) string {
	f.seq++
	token := fmt.Sprintf("%s%04dFAKE", prefix, f.seq)
	if into != nil {
		into[token] = true
	}
	return token
}

func (f *FakeAPI) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" || q.Get("client_id") != f.ClientID {
		writeError(w, http.StatusBadRequest, 1000, "invalid_request", "Invalid authorization request.")
		return
	}

	redirect := q.Get("redirect_uri")
	if redirect == "" {
		redirect = f.RedirectURI
	}

	f.mu.Lock()
	code := f.mintLocked("O", nil)
	f.codes[code] = q.Get("scope")
	f.mu.Unlock()

	target, err := url.Parse(redirect)
	if err != nil {
		writeError(w, http.StatusBadRequest, 1000, "invalid_request", "Invalid redirect URI.")
		return
	}
	values := target.Query()
	values.Set("code", code)
	values.Set("state", q.Get("state"))
	target.RawQuery = values.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (f *FakeAPI) clientAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != f.ClientID || secret != f.ClientSecret {
			writeError(w, http.StatusUnauthorized, 1001, "invalid_client", "Client authentication failed.")
			return
		}
		next(w, r)
	}
}

func (f *FakeAPI) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		valid := ok && f.access[token]
		f.mu.Unlock()
		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) token(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, 1000, "invalid_request", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	scope := params["scope"]
	switch params["grant_type"] {
	case "authorization_code":
		granted, known := f.codes[params["code"]]
		if !known {
			writeError(w, http.StatusBadRequest, 1002, "invalid_grant", "Unknown authorization code.")
			return
		}
		delete(f.codes, params["code"])
		scope = granted
	case "refresh_token":
		if !f.refresh[params["refresh_token"]] {
			writeError(w, http.StatusBadRequest, 1002, "invalid_grant", "Unknown refresh token.")
			return
		}
	case "password":
		if params["username"] != f.Username || params["password"] != f.Password {
			writeError(w, http.StatusBadRequest, 1002, "invalid_grant", "Invalid username or password.")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, 1003, "unsupported_grant_type", "Unsupported grant type.")
		return
	}

	resp := map[string]any{
		"access_token": f.mintLocked("A", f.access),
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        scope,
	}
	if params["grant_type"] != "refresh_token" {
		resp["refresh_token"] = f.mintLocked("R", f.refresh)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeAPI) revoke(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(r)
	if err != nil || params["token"] == "" {
		writeError(w, http.StatusBadRequest, 1000, "invalid_request", "Missing token.")
		return
	}

	f.mu.Lock()
	delete(f.access, params["token"])
	delete(f.refresh, params["token"])
	f.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) createUser(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(r)
	if err != nil || params["email"] == "" {
		writeError(w, http.StatusBadRequest, 1000, "invalid_request", "Missing email.")
		return
	}
	if params["affiliate_client_id"] != f.ClientID {
		writeError(w, http.StatusBadRequest, 1004, "invalid_affiliate", "Unknown affiliate client.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recovery_password": "abcd-efgh-ijkl-mnop"})
}

func (f *FakeAPI) catalog(w http.ResponseWriter, r *http.Request) {
	banks := []map[string]any{{"bank_code": "90090042", "bank_name": "Demobank"}}
	services := []map[string]any{{"name": "PayPal"}}

	switch chi.URLParam(r, "kind") {
	case "banks":
		writeJSON(w, http.StatusOK, map[string]any{"banks": banks})
	case "services":
		writeJSON(w, http.StatusOK, map[string]any{"services": services})
	case "":
		writeJSON(w, http.StatusOK, map[string]any{"banks": banks, "services": services})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeAPI) user(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user_id": "U1", "email": f.Username, "language": "de"})
}

func (f *FakeAPI) listAccounts(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"accounts": f.accounts})
}

func (f *FakeAPI) findAccountLocked(id string) (int, map[string]any) {
	for i, acc := range f.accounts {
		if acc["account_id"] == id {
			return i, acc
		}
	}
	return -1, nil
}

func (f *FakeAPI) getAccount(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, acc := f.findAccountLocked(chi.URLParam(r, "id")); acc != nil {
		writeJSON(w, http.StatusOK, acc)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *FakeAPI) deleteAccount(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, _ := f.findAccountLocked(chi.URLParam(r, "id"))
	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) balance(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	_, acc := f.findAccountLocked(chi.URLParam(r, "id"))
	f.mu.Unlock()
	if acc == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": 3250.31, "balance_date": "2013-04-11T12:00:00.000Z"})
}

func (f *FakeAPI) transactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		accountID = "A1.1"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": []map[string]any{
			{"transaction_id": "T1.1", "account_id": accountID, "name": "Rogers Shipping, Inc.", "amount": -1000.0},
		},
	})
}

func (f *FakeAPI) startSync(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	token := f.mintLocked("T", nil)
	f.tasks[token] = 0
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"task_token": token})
}

func (f *FakeAPI) progress(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	f.mu.Lock()
	polls, ok := f.tasks[id]
	if ok {
		polls++
		f.tasks[id] = polls
	}
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": "A1.1",
		"message":    fmt.Sprintf("Poll %d", polls),
		"is_ended":   polls >= f.TaskPolls,
	})
}

func (f *FakeAPI) cancel(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	f.mu.Lock()
	_, ok := f.tasks[id]
	delete(f.tasks, id)
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// readParams flattens a JSON object or form body into strings.
func readParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		return params, nil
	}

	if r.ContentLength == 0 {
		return params, nil
	}
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	for k, v := range raw {
		params[k] = fmt.Sprint(v)
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, name, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":        code,
			"name":        name,
			"message":     message,
			"description": message,
		},
	})
}
