package session

// User is the figo account owner.
type User struct {
	UserID           string            `json:"user_id,omitempty"`
	Name             string            `json:"name,omitempty"`
	Email            string            `json:"email,omitempty"`
	Address          map[string]string `json:"address,omitempty"`
	Verified         bool              `json:"verified_email,omitempty"`
	SendNewsletter   bool              `json:"send_newsletter,omitempty"`
	Language         string            `json:"language,omitempty"`
	Premium          bool              `json:"premium,omitempty"`
	PremiumExpiresOn string            `json:"premium_expires_on,omitempty"`
	JoinDate         string            `json:"join_date,omitempty"`
}

// SyncStatus describes the last synchronization of an account.
type SyncStatus struct {
	Code             int    `json:"code"`
	Message          string `json:"message,omitempty"`
	SyncTimestamp    string `json:"sync_timestamp,omitempty"`
	SuccessTimestamp string `json:"success_timestamp,omitempty"`
}

// Account is a bank account the user granted access to.
type Account struct {
	AccountID      string      `json:"account_id,omitempty"`
	BankID         string      `json:"bank_id,omitempty"`
	Name           string      `json:"name,omitempty"`
	Owner          string      `json:"owner,omitempty"`
	AutoSync       bool        `json:"auto_sync,omitempty"`
	AccountNumber  string      `json:"account_number,omitempty"`
	BankCode       string      `json:"bank_code,omitempty"`
	BankName       string      `json:"bank_name,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	IBAN           string      `json:"iban,omitempty"`
	BIC            string      `json:"bic,omitempty"`
	Type           string      `json:"type,omitempty"`
	Icon           string      `json:"icon,omitempty"`
	InTotalBalance bool        `json:"in_total_balance,omitempty"`
	Preview        bool        `json:"preview,omitempty"`
	Status         *SyncStatus `json:"status,omitempty"`
}

// Balance is the balance of one account.
type Balance struct {
	Balance              float64     `json:"balance"`
	BalanceDate          string      `json:"balance_date,omitempty"`
	CreditLine           float64     `json:"credit_line,omitempty"`
	MonthlySpendingLimit float64     `json:"monthly_spending_limit,omitempty"`
	Status               *SyncStatus `json:"status,omitempty"`
}

// Transaction is a booked or pending account transaction.
type Transaction struct {
	TransactionID         string  `json:"transaction_id,omitempty"`
	AccountID             string  `json:"account_id,omitempty"`
	Name                  string  `json:"name,omitempty"`
	AccountNumber         string  `json:"account_number,omitempty"`
	BankCode              string  `json:"bank_code,omitempty"`
	BankName              string  `json:"bank_name,omitempty"`
	Amount                float64 `json:"amount"`
	Currency              string  `json:"currency,omitempty"`
	BookingDate           string  `json:"booking_date,omitempty"`
	ValueDate             string  `json:"value_date,omitempty"`
	Purpose               string  `json:"purpose,omitempty"`
	Type                  string  `json:"type,omitempty"`
	BookingText           string  `json:"booking_text,omitempty"`
	Booked                bool    `json:"booked,omitempty"`
	Visited               bool    `json:"visited,omitempty"`
	IBAN                  string  `json:"iban,omitempty"`
	BIC                   string  `json:"bic,omitempty"`
	CreationTimestamp     string  `json:"creation_timestamp,omitempty"`
	ModificationTimestamp string  `json:"modification_timestamp,omitempty"`
}

// Payment is a transfer order prepared on the figo server.
type Payment struct {
	PaymentID           string  `json:"payment_id,omitempty"`
	AccountID           string  `json:"account_id,omitempty"`
	Type                string  `json:"type,omitempty"`
	Name                string  `json:"name,omitempty"`
	AccountNumber       string  `json:"account_number,omitempty"`
	BankCode            string  `json:"bank_code,omitempty"`
	BankName            string  `json:"bank_name,omitempty"`
	Amount              float64 `json:"amount,omitempty"`
	Currency            string  `json:"currency,omitempty"`
	Purpose             string  `json:"purpose,omitempty"`
	SubmissionTimestamp string  `json:"submission_timestamp,omitempty"`
	TransactionID       string  `json:"transaction_id,omitempty"`
}

// StandingOrder is a recurring transfer.
type StandingOrder struct {
	StandingOrderID    string  `json:"standing_order_id,omitempty"`
	AccountID          string  `json:"account_id,omitempty"`
	FirstExecutionDate string  `json:"first_execution_date,omitempty"`
	ExecutionDay       string  `json:"execution_day,omitempty"`
	Interval           string  `json:"interval,omitempty"`
	Name               string  `json:"name,omitempty"`
	AccountNumber      string  `json:"account_number,omitempty"`
	BankCode           string  `json:"bank_code,omitempty"`
	BankName           string  `json:"bank_name,omitempty"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency,omitempty"`
	Purpose            string  `json:"purpose,omitempty"`
}

// Security is a position in a depot account.
type Security struct {
	SecurityID    string  `json:"security_id,omitempty"`
	AccountID     string  `json:"account_id,omitempty"`
	Name          string  `json:"name,omitempty"`
	ISIN          string  `json:"isin,omitempty"`
	WKN           string  `json:"wkn,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Price         float64 `json:"price,omitempty"`
	PriceCurrency string  `json:"price_currency,omitempty"`
	PurchasePrice float64 `json:"purchase_price,omitempty"`
	Visited       bool    `json:"visited,omitempty"`
}

// Bank holds the user's settings for one bank.
type Bank struct {
	BankID         string `json:"bank_id,omitempty"`
	SEPACreditorID string `json:"sepa_creditor_id,omitempty"`
	SavePIN        bool   `json:"save_pin,omitempty"`
}

// Notification is a webhook registration.
type Notification struct {
	NotificationID string `json:"notification_id,omitempty"`
	ObserveKey     string `json:"observe_key,omitempty"`
	NotifyURI      string `json:"notify_uri,omitempty"`
	State          string `json:"state,omitempty"`
}
