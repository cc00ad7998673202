// internal/models/debt.go
package models

import (
	"fmt"
	"strings"
	"time"
)

type DebtType string
type DebtStatus string

const (
	DebtTypeDebt       DebtType = "debt"
	DebtTypeReceivable DebtType = "receivable"

	DebtStatusOngoing DebtStatus = "ongoing"
	DebtStatusPaid    DebtStatus = "paid"
	DebtStatusOverdue DebtStatus = "overdue"
)

// Installment bounds. One logical loan becomes at most MaxTenorMonths
// sibling debt rows, one per month.
const (
	MinTenorMonths = 1
	MaxTenorMonths = 36
)

// Default reconciliation tolerances. PaidEpsilon absorbs floating
// rounding when deciding a debt is settled; OverpayTolerance lets a
// payment exceed the remaining balance by a fraction of a cent before
// the overpay guard kicks in. Both are configurable through the
// service config.
const (
	DefaultPaidEpsilon      = 0.0001
	DefaultOverpayTolerance = 0.009
)

// Debt represents one obligation: money the user owes (type debt) or
// money owed to the user (type receivable). An installment plan is
// modeled as tenor_months independent sibling rows, each tracking its
// own payments, rather than one row with an amortization schedule.
type Debt struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	Type          DebtType   `json:"type" db:"type"`
	PartyName     string     `json:"party_name" db:"party_name"`
	Title         string     `json:"title" db:"title"`
	Notes         *string    `json:"notes" db:"notes"`
	Date          time.Time  `json:"date" db:"date"`
	DueDate       *time.Time `json:"due_date" db:"due_date"`
	Amount        float64    `json:"amount" db:"amount"`
	RatePercent   *float64   `json:"rate_percent" db:"rate_percent"`
	PaidTotal     float64    `json:"paid_total" db:"paid_total"`
	Remaining     float64    `json:"remaining"`
	Status        DebtStatus `json:"status" db:"status"`
	PaidAt        *time.Time `json:"paid_at" db:"paid_at"`
	TenorMonths   int        `json:"tenor_months" db:"tenor_months"`
	TenorSequence int        `json:"tenor_sequence" db:"tenor_sequence"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// EvaluateStatus derives a debt's status from its principal, the live
// sum of its payments and the due date. This is the single source of
// truth for status transitions unless a payment carries an explicit
// markAsPaid override.
func EvaluateStatus(amount, paidTotal float64, dueDate *time.Time, now time.Time, epsilon float64) DebtStatus {
	if paidTotal+epsilon >= amount {
		return DebtStatusPaid
	}
	if dueDate != nil && dueDate.Before(now) {
		return DebtStatusOverdue
	}
	return DebtStatusOngoing
}

// RemainingOf floors amount minus paidTotal at zero. The ledger keeps
// the full paid sum even past 100 percent; only the displayed
// remainder clamps.
func RemainingOf(amount, paidTotal float64) float64 {
	if r := amount - paidTotal; r > 0 {
		return r
	}
	return 0
}

// CheckOverpay rejects a payment that would push the remaining balance
// below -tolerance, unless the caller opted into overpaying.
// paidBaseline is the live sum of payments excluding the payment being
// applied (for edits, the original amount is already subtracted).
func CheckOverpay(amount, paidBaseline, payment, tolerance float64, allowOverpay bool) error {
	after := amount - (paidBaseline + payment)
	if after < -tolerance && !allowOverpay {
		return ErrOverpayRejected
	}
	return nil
}

// ResolveSettlement decides status and paid_at after a payment
// mutation. When the new paid total covers the principal the manual
// override applies: markAsPaid defaults to true, and an explicit false
// keeps an exactly-settled debt open on purpose. Otherwise the
// automatic evaluation decides.
func ResolveSettlement(amount, paidTotal float64, dueDate *time.Time, now time.Time, epsilon float64, markAsPaid *bool, paymentDate time.Time) (DebtStatus, *time.Time) {
	if RemainingOf(amount, paidTotal) <= 0 {
		if markAsPaid == nil || *markAsPaid {
			d := paymentDate
			return DebtStatusPaid, &d
		}
		return DebtStatusOngoing, nil
	}
	st := EvaluateStatus(amount, paidTotal, dueDate, now, epsilon)
	if st == DebtStatusPaid {
		d := paymentDate
		return st, &d
	}
	return st, nil
}

// MirrorType maps a debt's type to the cash-flow direction of its
// linked transaction: paying off a debt is an expense, collecting a
// receivable is income.
func (t DebtType) MirrorType() TransactionType {
	if t == DebtTypeReceivable {
		return TransactionIncome
	}
	return TransactionExpense
}

// MirrorTitle labels the linked transaction, falling back to a
// generated label when the debt has no title of its own.
func (d *Debt) MirrorTitle() string {
	if strings.TrimSpace(d.Title) != "" {
		return d.Title
	}
	if d.Type == DebtTypeReceivable {
		return fmt.Sprintf("Pelunasan piutang - %s", d.PartyName)
	}
	return fmt.Sprintf("Pembayaran hutang - %s", d.PartyName)
}

// DebtFilter narrows a listing. Zero values mean no filtering.
type DebtFilter struct {
	Type   DebtType
	Status DebtStatus
	Query  string
	Sort   string
}

// IsZero reports whether the filter selects everything.
func (f *DebtFilter) IsZero() bool {
	return f == nil || (f.Type == "" && f.Status == "" && f.Query == "" && f.Sort == "")
}

// DebtPatch is a partial update of a debt's descriptive fields. Nil
// members are left untouched; NotesSet and DueDateSet distinguish
// "clear this field" from "leave it alone".
type DebtPatch struct {
	Type        *DebtType
	PartyName   *string
	Title       *string
	Notes       *string
	NotesSet    bool
	Date        *time.Time
	DueDate     *time.Time
	DueDateSet  bool
	Amount      *float64
	RatePercent *float64

	PaidEpsilon float64
	Now         time.Time
}

type CreateDebtRequest struct {
	Type        DebtType `json:"type" binding:"required,oneof=debt receivable"`
	PartyName   string   `json:"party_name" binding:"required"`
	Title       string   `json:"title"`
	Notes       string   `json:"notes"`
	Date        string   `json:"date"`
	DueDate     string   `json:"due_date"`
	Amount      float64  `json:"amount"`
	RatePercent *float64 `json:"rate_percent"`
	TenorMonths int      `json:"tenor_months"`
}

type UpdateDebtRequest struct {
	Type        *DebtType `json:"type" binding:"omitempty,oneof=debt receivable"`
	PartyName   *string   `json:"party_name"`
	Title       *string   `json:"title"`
	Notes       *string   `json:"notes"`
	Date        *string   `json:"date"`
	DueDate     *string   `json:"due_date"`
	Amount      *float64  `json:"amount"`
	RatePercent *float64  `json:"rate_percent"`
}

// DebtListResponse pairs filtered items with the summary, which is
// always computed over all of the user's debts regardless of filters.
type DebtListResponse struct {
	Items   []*Debt      `json:"items"`
	Summary *DebtSummary `json:"summary"`
}

type DebtDetailResponse struct {
	Debt     *Debt          `json:"debt"`
	Payments []*DebtPayment `json:"payments"`
}

// Database schema
const DebtSchema = `
CREATE TABLE IF NOT EXISTS debts (
    id VARCHAR(36) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL,
    type VARCHAR(10) NOT NULL,
    party_name VARCHAR(120) NOT NULL,
    title VARCHAR(255) NOT NULL DEFAULT '',
    notes TEXT,
    date TIMESTAMPTZ NOT NULL,
    due_date TIMESTAMPTZ,
    amount DECIMAL(19, 4) NOT NULL,
    rate_percent DECIMAL(5, 2),
    paid_total DECIMAL(19, 4) NOT NULL DEFAULT 0,
    status VARCHAR(10) NOT NULL DEFAULT 'ongoing',
    paid_at TIMESTAMPTZ,
    tenor_months INT NOT NULL DEFAULT 1,
    tenor_sequence INT NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_debts_user_id ON debts (user_id);
CREATE INDEX IF NOT EXISTS idx_debts_status ON debts (status);
CREATE INDEX IF NOT EXISTS idx_debts_due_date ON debts (due_date);
`
