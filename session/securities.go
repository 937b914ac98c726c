package session

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SecurityQuery narrows a securities listing. The zero value lists every
// position of every account.
type SecurityQuery struct {
	// AccountID restricts the listing to one account.
	AccountID string

	// Accounts filters an all-accounts listing to these account IDs.
	Accounts []string

	// Since is an ISO date compared according to SinceType, which is one of
	// "traded", "created" or "modified".
	Since     string
	SinceType string

	Count  int
	Offset int
}

func (q SecurityQuery) path() string {
	values := url.Values{}
	if len(q.Accounts) > 0 && q.AccountID == "" {
		values.Set("accounts", strings.Join(q.Accounts, ","))
	}
	if q.Since != "" {
		values.Set("since", q.Since)
	}
	if q.SinceType != "" {
		values.Set("since_type", q.SinceType)
	}
	if q.Count > 0 {
		values.Set("count", strconv.Itoa(q.Count))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	path := "/rest/securities"
	if q.AccountID != "" {
		path = accountPath(q.AccountID) + "/securities"
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// Securities lists depot positions matching q.
func (s *Session) Securities(ctx context.Context, q SecurityQuery) ([]Security, error) {
	var resp struct {
		Securities []Security `json:"securities"`
	}
	_, err := s.get(ctx, q.path(), &resp)
	return resp.Securities, err
}

// Security returns one depot position.
func (s *Session) Security(ctx context.Context, accountID, securityID string) (Security, bool, error) {
	var sec Security
	found, err := s.get(ctx, securityPath(accountID, securityID), &sec)
	return sec, found, err
}

// ModifySecurity sets the visited flag of one position.
func (s *Session) ModifySecurity(ctx context.Context, accountID, securityID string, visited bool) error {
	_, err := s.Call(ctx, securityPath(accountID, securityID), visitedBody(visited), http.MethodPut)
	return err
}

// ModifySecurities sets the visited flag of every position, of one account
// when accountID is set.
func (s *Session) ModifySecurities(ctx context.Context, accountID string, visited bool) error {
	path := "/rest/securities"
	if accountID != "" {
		path = accountPath(accountID) + "/securities"
	}
	_, err := s.Call(ctx, path, visitedBody(visited), http.MethodPut)
	return err
}

func securityPath(accountID, securityID string) string {
	return accountPath(accountID) + "/securities/" + url.PathEscape(securityID)
}
