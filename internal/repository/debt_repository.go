// internal/repository/debt_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lilyxseo/HematWoi-sub009/internal/models"
	"github.com/lilyxseo/HematWoi-sub009/internal/norm"
)

// DebtRepository is the single reconciliation authority. Every payment
// mutation runs in one SQL transaction that locks the parent debt row,
// keeps the linked transaction mirror in sync, and recomputes the
// cached aggregates from the live payment sum before committing.
// Concurrent mutations against one debt serialize on the row lock.
type DebtRepository struct {
	db *sql.DB
}

func NewDebtRepository(db *sql.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

const debtColumns = `id, user_id, type, party_name, title, notes, date, due_date,
	   amount, rate_percent, paid_total, status, paid_at,
	   tenor_months, tenor_sequence, created_at, updated_at`

const paymentColumns = `id, debt_id, user_id, amount, date, account_id,
	   account_name, transaction_id, notes, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDebt is the normalization boundary for debt rows. Numeric
// columns go through norm.SafeNumber because the store does not
// guarantee type fidelity, and tenor fields are clamped on the way in.
func scanDebt(row rowScanner) (*models.Debt, error) {
	var (
		d           models.Debt
		notes       sql.NullString
		dueDate     sql.NullTime
		amount      sql.NullString
		ratePercent sql.NullString
		paidTotal   sql.NullString
		paidAt      sql.NullTime
	)

	err := row.Scan(
		&d.ID, &d.UserID, &d.Type, &d.PartyName, &d.Title, &notes,
		&d.Date, &dueDate, &amount, &ratePercent, &paidTotal, &d.Status,
		&paidAt, &d.TenorMonths, &d.TenorSequence, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		d.Notes = norm.NullableText(notes.String)
	}
	if dueDate.Valid {
		t := dueDate.Time
		d.DueDate = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		d.PaidAt = &t
	}
	d.Amount = norm.SafeNumber(amount)
	if ratePercent.Valid {
		r := norm.SafeNumber(ratePercent)
		d.RatePercent = &r
	}
	d.PaidTotal = norm.SafeNumber(paidTotal)
	d.Remaining = models.RemainingOf(d.Amount, d.PaidTotal)
	d.TenorMonths = norm.ClampInt(d.TenorMonths, models.MinTenorMonths, models.MaxTenorMonths)
	d.TenorSequence = norm.ClampInt(d.TenorSequence, 1, d.TenorMonths)
	return &d, nil
}

func scanPayment(row rowScanner) (*models.DebtPayment, error) {
	var (
		p             models.DebtPayment
		amount        sql.NullString
		accountID     sql.NullString
		accountName   sql.NullString
		transactionID sql.NullString
		notes         sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.DebtID, &p.UserID, &amount, &p.Date,
		&accountID, &accountName, &transactionID, &notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Amount = norm.SafeNumber(amount)
	if accountID.Valid && accountID.String != "" {
		v := accountID.String
		p.AccountID = &v
	}
	if accountName.Valid {
		p.AccountName = norm.NullableText(accountName.String)
	}
	if transactionID.Valid && transactionID.String != "" {
		v := transactionID.String
		p.TransactionID = &v
	}
	if notes.Valid {
		p.Notes = norm.NullableText(notes.String)
	}
	return &p, nil
}

// InsertDebts writes a batch of sibling installment rows atomically.
func (r *DebtRepository) InsertDebts(ctx context.Context, debts []*models.Debt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	for _, d := range debts {
		_, err = tx.ExecContext(ctx, query,
			d.ID, d.UserID, d.Type, d.PartyName, d.Title, d.Notes,
			d.Date, d.DueDate, d.Amount, d.RatePercent, d.PaidTotal,
			d.Status, d.PaidAt, d.TenorMonths, d.TenorSequence,
			d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *DebtRepository) GetDebt(ctx context.Context, userID, id string) (*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 AND user_id = $2`

	debt, err := scanDebt(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return debt, err
}

func (r *DebtRepository) ListDebts(ctx context.Context, userID string, f *models.DebtFilter) ([]*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE user_id = $1`
	args := []interface{}{userID}

	if f != nil {
		if f.Type != "" {
			args = append(args, f.Type)
			query += fmt.Sprintf(" AND type = $%d", len(args))
		}
		if f.Status != "" {
			args = append(args, f.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if f.Query != "" {
			args = append(args, "%"+f.Query+"%")
			query += fmt.Sprintf(" AND (party_name ILIKE $%d OR title ILIKE $%d)", len(args), len(args))
		}
	}
	query += " ORDER BY " + sortClause(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// sortClause whitelists the order-by expression; filter input never
// reaches the SQL text directly.
func sortClause(f *models.DebtFilter) string {
	if f == nil {
		return "date DESC, created_at DESC"
	}
	switch f.Sort {
	case "oldest":
		return "date ASC, created_at ASC"
	case "amount":
		return "amount DESC"
	case "due_date":
		return "due_date ASC NULLS LAST"
	default:
		return "date DESC, created_at DESC"
	}
}

// UpdateDebt applies a partial edit under the debt row lock. The
// cached paid_total is recomputed from the live payment sum and status
// is re-derived, so a principal or due-date edit can move the debt
// between ongoing, overdue and paid.
func (r *DebtRepository) UpdateDebt(ctx context.Context, userID, id string, patch *models.DebtPatch) (*models.Debt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	debt, err := lockDebt(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != nil {
		debt.Type = *patch.Type
	}
	if patch.PartyName != nil {
		debt.PartyName = *patch.PartyName
	}
	if patch.Title != nil {
		debt.Title = *patch.Title
	}
	if patch.NotesSet {
		debt.Notes = patch.Notes
	}
	if patch.Date != nil {
		debt.Date = *patch.Date
	}
	if patch.DueDateSet {
		debt.DueDate = patch.DueDate
	}
	if patch.Amount != nil {
		debt.Amount = *patch.Amount
	}
	if patch.RatePercent != nil {
		debt.RatePercent = patch.RatePercent
	}

	live, err := sumPayments(ctx, tx, debt.ID)
	if err != nil {
		return nil, err
	}
	debt.PaidTotal = live
	debt.Remaining = models.RemainingOf(debt.Amount, live)
	prev := debt.Status
	debt.Status = models.EvaluateStatus(debt.Amount, live, debt.DueDate, patch.Now, patch.PaidEpsilon)
	if debt.Status != models.DebtStatusPaid {
		debt.PaidAt = nil
	} else if prev != models.DebtStatusPaid || debt.PaidAt == nil {
		now := patch.Now
		debt.PaidAt = &now
	}
	debt.UpdatedAt = patch.Now

	query := `
		UPDATE debts
		SET type = $1, party_name = $2, title = $3, notes = $4, date = $5,
		    due_date = $6, amount = $7, rate_percent = $8, paid_total = $9,
		    status = $10, paid_at = $11, updated_at = $12
		WHERE id = $13 AND user_id = $14
	`
	_, err = tx.ExecContext(ctx, query,
		debt.Type, debt.PartyName, debt.Title, debt.Notes, debt.Date,
		debt.DueDate, debt.Amount, debt.RatePercent, debt.PaidTotal,
		debt.Status, debt.PaidAt, debt.UpdatedAt, debt.ID, userID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return debt, nil
}

// DeleteDebt removes the debt and its payments, soft-deleting every
// linked transaction mirror in the same transaction so cash-flow
// history survives the cascade.
func (r *DebtRepository) DeleteDebt(ctx context.Context, userID, id string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET deleted_at = $1, updated_at = $1
		WHERE user_id = $2 AND deleted_at IS NULL AND id IN (
			SELECT transaction_id FROM debt_payments
			WHERE debt_id = $3 AND transaction_id IS NOT NULL
		)
	`, now, userID, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM debt_payments WHERE debt_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM debts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}

	return tx.Commit()
}

func (r *DebtRepository) GetPayment(ctx context.Context, userID, id string) (*models.DebtPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM debt_payments WHERE id = $1 AND user_id = $2`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return payment, err
}

func (r *DebtRepository) ListPayments(ctx context.Context, userID, debtID string) ([]*models.DebtPayment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM debt_payments
		WHERE debt_id = $1 AND user_id = $2
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, debtID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.DebtPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SumPaymentsInRange feeds the totalPaidThisMonth rollup.
func (r *DebtRepository) SumPaymentsInRange(ctx context.Context, userID string, from, to time.Time) (float64, error) {
	var sum sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM debt_payments
		WHERE user_id = $1 AND date >= $2 AND date < $3
	`, userID, from, to).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return norm.SafeNumber(sum), nil
}

// CreatePayment records a payment and, when requested, its transaction
// mirror, then recomputes the parent debt's aggregates. The overpay
// guard runs against the payment sum read under the row lock, not the
// cached paid_total, so it cannot be raced past.
func (r *DebtRepository) CreatePayment(ctx context.Context, intent *models.PaymentIntent) (*models.Debt, *models.DebtPayment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	debt, err := lockDebt(ctx, tx, intent.UserID, intent.DebtID)
	if err != nil {
		return nil, nil, err
	}

	live, err := sumPayments(ctx, tx, debt.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := models.CheckOverpay(debt.Amount, live, intent.Amount, intent.OverpayTolerance, intent.AllowOverpay); err != nil {
		return nil, nil, err
	}

	var transactionID *string
	if intent.RecordTransaction {
		id, err := insertMirror(ctx, tx, debt, intent)
		if err != nil {
			return nil, nil, err
		}
		transactionID = &id
	}

	payment := &models.DebtPayment{
		ID:            uuid.New().String(),
		DebtID:        debt.ID,
		UserID:        intent.UserID,
		Amount:        intent.Amount,
		Date:          intent.Date,
		AccountID:     intent.AccountID,
		AccountName:   intent.AccountName,
		TransactionID: transactionID,
		Notes:         intent.Notes,
		CreatedAt:     intent.Now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO debt_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		payment.ID, payment.DebtID, payment.UserID, payment.Amount,
		payment.Date, payment.AccountID, payment.AccountName,
		payment.TransactionID, payment.Notes, payment.CreatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	if err := reconcileDebt(ctx, tx, debt, intent); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return debt, payment, nil
}

// UpdatePayment edits a payment under the debt row lock. The overpay
// baseline excludes the payment's original amount before re-adding the
// new one, and the mirror is updated in place, created late, or
// soft-deleted when the caller no longer wants one.
func (r *DebtRepository) UpdatePayment(ctx context.Context, intent *models.PaymentIntent) (*models.Debt, *models.DebtPayment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	payment, err := lockPayment(ctx, tx, intent.UserID, intent.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	debt, err := lockDebt(ctx, tx, intent.UserID, payment.DebtID)
	if err != nil {
		return nil, nil, err
	}

	live, err := sumPayments(ctx, tx, debt.ID)
	if err != nil {
		return nil, nil, err
	}
	baseline := live - payment.Amount
	if err := models.CheckOverpay(debt.Amount, baseline, intent.Amount, intent.OverpayTolerance, intent.AllowOverpay); err != nil {
		return nil, nil, err
	}

	transactionID := payment.TransactionID
	switch {
	case intent.RecordTransaction && transactionID != nil:
		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET amount = $1, date = $2, account_id = $3, category_id = $4,
			    notes = $5, updated_at = $6
			WHERE id = $7 AND user_id = $8 AND deleted_at IS NULL
		`, intent.Amount, norm.DayFloor(intent.Date), intent.AccountID,
			intent.CategoryID, intent.Notes, intent.Now, *transactionID, intent.UserID)
		if err != nil {
			return nil, nil, err
		}
	case intent.RecordTransaction && transactionID == nil:
		id, err := insertMirror(ctx, tx, debt, intent)
		if err != nil {
			return nil, nil, err
		}
		transactionID = &id
	case !intent.RecordTransaction && transactionID != nil:
		if err := softDeleteMirror(ctx, tx, intent.UserID, *transactionID, intent.Now); err != nil {
			return nil, nil, err
		}
		transactionID = nil
	}

	payment.Amount = intent.Amount
	payment.Date = intent.Date
	payment.AccountID = intent.AccountID
	payment.AccountName = intent.AccountName
	payment.Notes = intent.Notes
	payment.TransactionID = transactionID
	_, err = tx.ExecContext(ctx, `
		UPDATE debt_payments
		SET amount = $1, date = $2, account_id = $3, account_name = $4,
		    transaction_id = $5, notes = $6
		WHERE id = $7 AND user_id = $8
	`, payment.Amount, payment.Date, payment.AccountID, payment.AccountName,
		payment.TransactionID, payment.Notes, payment.ID, intent.UserID)
	if err != nil {
		return nil, nil, err
	}

	if err := reconcileDebt(ctx, tx, debt, intent); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return debt, payment, nil
}

// DeletePayment removes a payment and soft-deletes its mirror when the
// caller asked for rollback. Status reverts through the automatic
// evaluation; the manual override never applies to deletions.
func (r *DebtRepository) DeletePayment(ctx context.Context, userID, paymentID string, withRollback bool, epsilon float64, now time.Time) (*models.Debt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payment, err := lockPayment(ctx, tx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	debt, err := lockDebt(ctx, tx, userID, payment.DebtID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM debt_payments WHERE id = $1 AND user_id = $2`, paymentID, userID)
	if err != nil {
		return nil, err
	}

	if withRollback && payment.TransactionID != nil {
		if err := softDeleteMirror(ctx, tx, userID, *payment.TransactionID, now); err != nil {
			return nil, err
		}
	}

	live, err := sumPayments(ctx, tx, debt.ID)
	if err != nil {
		return nil, err
	}
	debt.PaidTotal = live
	debt.Remaining = models.RemainingOf(debt.Amount, live)
	debt.Status = models.EvaluateStatus(debt.Amount, live, debt.DueDate, now, epsilon)
	if debt.Status != models.DebtStatusPaid {
		debt.PaidAt = nil
	}
	debt.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		UPDATE debts SET paid_total = $1, status = $2, paid_at = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`, debt.PaidTotal, debt.Status, debt.PaidAt, debt.UpdatedAt, debt.ID, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return debt, nil
}

// Transaction-scoped helpers.

func lockDebt(ctx context.Context, tx *sql.Tx, userID, id string) (*models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 AND user_id = $2 FOR UPDATE`

	debt, err := scanDebt(tx.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return debt, err
}

func lockPayment(ctx context.Context, tx *sql.Tx, userID, id string) (*models.DebtPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM debt_payments WHERE id = $1 AND user_id = $2 FOR UPDATE`

	payment, err := scanPayment(tx.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return payment, err
}

func sumPayments(ctx context.Context, tx *sql.Tx, debtID string) (float64, error) {
	var sum sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM debt_payments WHERE debt_id = $1`, debtID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return norm.SafeNumber(sum), nil
}

func insertMirror(ctx context.Context, tx *sql.Tx, debt *models.Debt, intent *models.PaymentIntent) (string, error) {
	id := uuid.New().String()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, title, amount, date,
			account_id, category_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		id, intent.UserID, debt.Type.MirrorType(), debt.MirrorTitle(),
		intent.Amount, norm.DayFloor(intent.Date), intent.AccountID,
		intent.CategoryID, intent.Notes, intent.Now, intent.Now,
	)
	return id, err
}

func softDeleteMirror(ctx context.Context, tx *sql.Tx, userID, transactionID string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
	`, now, transactionID, userID)
	return err
}

// reconcileDebt rewrites the parent's aggregates from the live payment
// sum after a mutation. Always a fresh SUM, never an increment, so any
// prior drift self-heals here.
func reconcileDebt(ctx context.Context, tx *sql.Tx, debt *models.Debt, intent *models.PaymentIntent) error {
	live, err := sumPayments(ctx, tx, debt.ID)
	if err != nil {
		return err
	}
	debt.PaidTotal = live
	debt.Remaining = models.RemainingOf(debt.Amount, live)
	debt.Status, debt.PaidAt = models.ResolveSettlement(
		debt.Amount, live, debt.DueDate, intent.Now, intent.PaidEpsilon,
		intent.MarkAsPaid, intent.Date,
	)
	debt.UpdatedAt = intent.Now

	_, err = tx.ExecContext(ctx, `
		UPDATE debts SET paid_total = $1, status = $2, paid_at = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`, debt.PaidTotal, debt.Status, debt.PaidAt, debt.UpdatedAt, debt.ID, debt.UserID)
	return err
}
