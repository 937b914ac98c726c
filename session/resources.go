package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// User returns the user the access token belongs to.
func (s *Session) User(ctx context.Context) (User, error) {
	var user User
	_, err := s.get(ctx, "/rest/user", &user)
	return user, err
}

// ModifyUser updates the user and returns the stored version.
func (s *Session) ModifyUser(ctx context.Context, user User) (User, error) {
	var out User
	_, err := s.do(ctx, "/rest/user", user, http.MethodPut, &out)
	return out, err
}

// RemoveUser deletes the figo account of the user. The session cannot be
// used afterwards.
func (s *Session) RemoveUser(ctx context.Context) error {
	_, err := s.Call(ctx, "/rest/user", nil, http.MethodDelete)
	return err
}

// ResendVerification sends the email verification message again.
func (s *Session) ResendVerification(ctx context.Context) error {
	_, err := s.Call(ctx, "/rest/user/resend_verification", nil, http.MethodPost)
	return err
}

// Accounts lists the accounts the user granted access to.
func (s *Session) Accounts(ctx context.Context) ([]Account, error) {
	var resp struct {
		Accounts []Account `json:"accounts"`
	}
	_, err := s.get(ctx, "/rest/accounts", &resp)
	return resp.Accounts, err
}

// Account returns one account. The boolean is false when it does not exist.
func (s *Session) Account(ctx context.Context, accountID string) (Account, bool, error) {
	var account Account
	found, err := s.get(ctx, accountPath(accountID), &account)
	return account, found, err
}

// ModifyAccount updates the account and returns the stored version.
func (s *Session) ModifyAccount(ctx context.Context, account Account) (Account, error) {
	var out Account
	_, err := s.do(ctx, accountPath(account.AccountID), account, http.MethodPut, &out)
	return out, err
}

// RemoveAccount deletes the account. Removing an unknown account is not an
// error.
func (s *Session) RemoveAccount(ctx context.Context, accountID string) error {
	_, err := s.Call(ctx, accountPath(accountID), nil, http.MethodDelete)
	return err
}

// AccountBalance returns the balance of one account.
func (s *Session) AccountBalance(ctx context.Context, accountID string) (Balance, bool, error) {
	var balance Balance
	found, err := s.get(ctx, accountPath(accountID)+"/balance", &balance)
	return balance, found, err
}

// ModifyAccountBalance updates the balance settings of an account, such as
// the credit line, and returns the stored version.
func (s *Session) ModifyAccountBalance(ctx context.Context, accountID string, balance Balance) (Balance, error) {
	var out Balance
	_, err := s.do(ctx, accountPath(accountID)+"/balance", balance, http.MethodPut, &out)
	return out, err
}

// TransactionQuery narrows a transaction listing.
type TransactionQuery struct {
	// AccountID restricts the listing to one account. Empty lists all.
	AccountID string

	// Since is a date (YYYY-MM-DD) or a transaction ID.
	Since string

	// Count defaults to 1000.
	Count  int
	Offset int

	IncludePending bool
}

func (q TransactionQuery) path() string {
	values := url.Values{}
	count := q.Count
	if count <= 0 {
		count = 1000
	}
	values.Set("count", strconv.Itoa(count))
	values.Set("offset", strconv.Itoa(q.Offset))
	if q.IncludePending {
		values.Set("include_pending", "1")
	} else {
		values.Set("include_pending", "0")
	}
	if q.Since != "" {
		values.Set("since", q.Since)
	}

	base := "/rest/transactions"
	if q.AccountID != "" {
		base = accountPath(q.AccountID) + "/transactions"
	}
	return base + "?" + values.Encode()
}

// Transactions lists transactions matching q.
func (s *Session) Transactions(ctx context.Context, q TransactionQuery) ([]Transaction, error) {
	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	_, err := s.get(ctx, q.path(), &resp)
	return resp.Transactions, err
}

// Transaction returns one transaction of an account.
func (s *Session) Transaction(ctx context.Context, accountID, transactionID string) (Transaction, bool, error) {
	var tx Transaction
	found, err := s.get(ctx, transactionPath(accountID, transactionID), &tx)
	return tx, found, err
}

// ModifyTransaction sets the visited flag of one transaction. It is the only
// field the server lets clients change.
func (s *Session) ModifyTransaction(ctx context.Context, accountID, transactionID string, visited bool) error {
	if accountID == "" || transactionID == "" {
		return errors.New("session: transaction needs an account ID and a transaction ID")
	}
	_, err := s.Call(ctx, transactionPath(accountID, transactionID), visitedBody(visited), http.MethodPut)
	return err
}

// ModifyTransactions sets the visited flag of every transaction, of one
// account when accountID is set.
func (s *Session) ModifyTransactions(ctx context.Context, accountID string, visited bool) error {
	path := "/rest/transactions"
	if accountID != "" {
		path = accountPath(accountID) + "/transactions"
	}
	_, err := s.Call(ctx, path, visitedBody(visited), http.MethodPut)
	return err
}

// RemoveTransaction deletes one transaction.
func (s *Session) RemoveTransaction(ctx context.Context, accountID, transactionID string) error {
	_, err := s.Call(ctx, transactionPath(accountID, transactionID), nil, http.MethodDelete)
	return err
}

// Bank returns the user's settings for a bank.
func (s *Session) Bank(ctx context.Context, bankID string) (Bank, bool, error) {
	var bank Bank
	found, err := s.get(ctx, "/rest/banks/"+url.PathEscape(bankID), &bank)
	return bank, found, err
}

// ModifyBank updates the user's settings for bank.BankID and returns the
// stored version.
func (s *Session) ModifyBank(ctx context.Context, bank Bank) (Bank, error) {
	var out Bank
	_, err := s.do(ctx, "/rest/banks/"+url.PathEscape(bank.BankID), bank, http.MethodPut, &out)
	return out, err
}

// RemoveBankPIN deletes the stored PIN of a bank.
func (s *Session) RemoveBankPIN(ctx context.Context, bankID string) error {
	_, err := s.Call(ctx, "/rest/banks/"+url.PathEscape(bankID)+"/remove_pin", nil, http.MethodPost)
	return err
}

// Notifications lists the webhook registrations.
func (s *Session) Notifications(ctx context.Context) ([]Notification, error) {
	var resp struct {
		Notifications []Notification `json:"notifications"`
	}
	_, err := s.get(ctx, "/rest/notifications", &resp)
	return resp.Notifications, err
}

// Notification returns one webhook registration.
func (s *Session) Notification(ctx context.Context, notificationID string) (Notification, bool, error) {
	var n Notification
	found, err := s.get(ctx, notificationPath(notificationID), &n)
	return n, found, err
}

// AddNotification registers a webhook and returns it with its ID.
func (s *Session) AddNotification(ctx context.Context, n Notification) (Notification, error) {
	var out Notification
	_, err := s.do(ctx, "/rest/notifications", n, http.MethodPost, &out)
	return out, err
}

// ModifyNotification updates a webhook registration and returns the stored
// version.
func (s *Session) ModifyNotification(ctx context.Context, n Notification) (Notification, error) {
	var out Notification
	_, err := s.do(ctx, notificationPath(n.NotificationID), n, http.MethodPut, &out)
	return out, err
}

// RemoveNotification deletes a webhook registration.
func (s *Session) RemoveNotification(ctx context.Context, notificationID string) error {
	_, err := s.Call(ctx, notificationPath(notificationID), nil, http.MethodDelete)
	return err
}

// StandingOrders lists the standing orders of all accounts.
func (s *Session) StandingOrders(ctx context.Context) ([]StandingOrder, error) {
	var resp struct {
		StandingOrders []StandingOrder `json:"standing_orders"`
	}
	_, err := s.get(ctx, "/rest/standing_orders", &resp)
	return resp.StandingOrders, err
}

// StandingOrder returns one standing order.
func (s *Session) StandingOrder(ctx context.Context, standingOrderID string) (StandingOrder, bool, error) {
	var order StandingOrder
	found, err := s.get(ctx, "/rest/standing_orders/"+url.PathEscape(standingOrderID), &order)
	return order, found, err
}

func accountPath(accountID string) string {
	return "/rest/accounts/" + url.PathEscape(accountID)
}

func transactionPath(accountID, transactionID string) string {
	return accountPath(accountID) + "/transactions/" + url.PathEscape(transactionID)
}

func notificationPath(notificationID string) string {
	return "/rest/notifications/" + url.PathEscape(notificationID)
}

func visitedBody(visited bool) map[string]bool {
	return map[string]bool{"visited": visited}
}
