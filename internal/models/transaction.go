// internal/models/transaction.go
package models

import "time"

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is the cash-flow mirror of a debt payment. Mirror rows
// are never hard-deleted: removing a payment stamps deleted_at and
// every read filters on it, so cash-flow history stays recoverable.
type Transaction struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Type       TransactionType `json:"type" db:"type"`
	Title      string          `json:"title" db:"title"`
	Amount     float64         `json:"amount" db:"amount"`
	Date       time.Time       `json:"date" db:"date"`
	AccountID  *string         `json:"account_id" db:"account_id"`
	CategoryID *string         `json:"category_id" db:"category_id"`
	Notes      *string         `json:"notes" db:"notes"`
	DeletedAt  *time.Time      `json:"deleted_at" db:"deleted_at"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Database schema
const TransactionSchema = `
CREATE TABLE IF NOT EXISTS transactions (
    id VARCHAR(36) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL,
    type VARCHAR(10) NOT NULL,
    title VARCHAR(255) NOT NULL DEFAULT '',
    amount DECIMAL(19, 4) NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    account_id VARCHAR(36),
    category_id VARCHAR(36),
    notes TEXT,
    deleted_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions (user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date);
CREATE INDEX IF NOT EXISTS idx_transactions_deleted_at ON transactions (deleted_at);
`
