// internal/models/payment.go
package models

import "time"

// DebtPayment is one recorded payment against a debt. When
// transaction_id is set, exactly one live transaction row mirrors this
// payment's amount, day-truncated date, account and notes.
type DebtPayment struct {
	ID            string    `json:"id" db:"id"`
	DebtID        string    `json:"debt_id" db:"debt_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Date          time.Time `json:"date" db:"date"`
	AccountID     *string   `json:"account_id" db:"account_id"`
	AccountName   *string   `json:"account_name" db:"account_name"`
	TransactionID *string   `json:"transaction_id" db:"transaction_id"`
	Notes         *string   `json:"notes" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PaymentIntent carries a validated payment mutation into the storage
// transaction. Every policy knob is resolved by the service before the
// intent reaches the repository, so the repository only has to apply
// it under the debt row lock.
type PaymentIntent struct {
	UserID    string
	DebtID    string
	PaymentID string // set for updates

	Amount float64
	Date   time.Time
	Notes  *string

	RecordTransaction bool
	AccountID         *string
	AccountName       *string
	CategoryID        *string

	MarkAsPaid   *bool
	AllowOverpay bool

	PaidEpsilon      float64
	OverpayTolerance float64
	Now              time.Time
}

type CreateDebtPaymentRequest struct {
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`
	Notes             string  `json:"notes"`
	AccountID         string  `json:"account_id"`
	CategoryID        string  `json:"category_id"`
	RecordTransaction *bool   `json:"record_transaction"`
	MarkAsPaid        *bool   `json:"mark_as_paid"`
	AllowOverpay      bool    `json:"allow_overpay"`
	IdempotencyKey    string  `json:"idempotency_key"`
}

type UpdateDebtPaymentRequest struct {
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`
	Notes             string  `json:"notes"`
	AccountID         string  `json:"account_id"`
	CategoryID        string  `json:"category_id"`
	RecordTransaction *bool   `json:"record_transaction"`
	MarkAsPaid        *bool   `json:"mark_as_paid"`
	AllowOverpay      bool    `json:"allow_overpay"`
}

// PaymentResult is what every payment mutation returns: the payment
// and its parent debt with freshly recomputed aggregates.
type PaymentResult struct {
	Debt    *Debt        `json:"debt"`
	Payment *DebtPayment `json:"payment"`
}

// Database schema
const DebtPaymentSchema = `
CREATE TABLE IF NOT EXISTS debt_payments (
    id VARCHAR(36) PRIMARY KEY,
    debt_id VARCHAR(36) NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
    user_id VARCHAR(36) NOT NULL,
    amount DECIMAL(19, 4) NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    account_id VARCHAR(36),
    account_name VARCHAR(120),
    transaction_id VARCHAR(36),
    notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_debt_payments_debt_id ON debt_payments (debt_id);
CREATE INDEX IF NOT EXISTS idx_debt_payments_user_id ON debt_payments (user_id);
CREATE INDEX IF NOT EXISTS idx_debt_payments_date ON debt_payments (date);
`
