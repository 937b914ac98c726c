package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Payments lists payments, of one account when accountID is set.
func (s *Session) Payments(ctx context.Context, accountID string) ([]Payment, error) {
	path := "/rest/payments"
	if accountID != "" {
		path = accountPath(accountID) + "/payments"
	}
	var resp struct {
		Payments []Payment `json:"payments"`
	}
	_, err := s.get(ctx, path, &resp)
	return resp.Payments, err
}

// Payment returns one payment.
func (s *Session) Payment(ctx context.Context, accountID, paymentID string) (Payment, bool, error) {
	var p Payment
	found, err := s.get(ctx, paymentPath(accountID, paymentID), &p)
	return p, found, err
}

// AddPayment creates a payment on p.AccountID and returns it with its ID.
func (s *Session) AddPayment(ctx context.Context, p Payment) (Payment, error) {
	if p.AccountID == "" {
		return Payment{}, errors.New("session: payment has no account ID")
	}
	var out Payment
	_, err := s.do(ctx, accountPath(p.AccountID)+"/payments", p, http.MethodPost, &out)
	return out, err
}

// ModifyPayment updates a payment and returns the stored version.
func (s *Session) ModifyPayment(ctx context.Context, p Payment) (Payment, error) {
	var out Payment
	_, err := s.do(ctx, paymentPath(p.AccountID, p.PaymentID), p, http.MethodPut, &out)
	return out, err
}

// RemovePayment deletes a payment.
func (s *Session) RemovePayment(ctx context.Context, accountID, paymentID string) error {
	_, err := s.Call(ctx, paymentPath(accountID, paymentID), nil, http.MethodDelete)
	return err
}

// SubmitPayment sends a payment to the bank. The returned task must be
// completed by the user at SyncURL, for example to enter a TAN.
func (s *Session) SubmitPayment(ctx context.Context, p Payment, tanSchemeID, state, redirectURI string) (TaskToken, error) {
	data := map[string]string{
		"tan_scheme_id": tanSchemeID,
		"state":         state,
	}
	if redirectURI != "" {
		data["redirect_uri"] = redirectURI
	}
	return s.startTask(ctx, paymentPath(p.AccountID, p.PaymentID)+"/submit", data)
}

func paymentPath(accountID, paymentID string) string {
	return accountPath(accountID) + "/payments/" + url.PathEscape(paymentID)
}
