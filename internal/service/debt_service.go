// internal/service/debt_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lilyxseo/HematWoi-sub009/internal/config"
	"github.com/lilyxseo/HematWoi-sub009/internal/models"
	"github.com/lilyxseo/HematWoi-sub009/internal/norm"
)

// DebtStore is the reconciliation authority the service delegates to.
// Payment mutations are atomic: the implementation locks the parent
// debt row, syncs the transaction mirror and recomputes aggregates in
// one transaction.
type DebtStore interface {
	InsertDebts(ctx context.Context, debts []*models.Debt) error
	GetDebt(ctx context.Context, userID, id string) (*models.Debt, error)
	ListDebts(ctx context.Context, userID string, f *models.DebtFilter) ([]*models.Debt, error)
	UpdateDebt(ctx context.Context, userID, id string, patch *models.DebtPatch) (*models.Debt, error)
	DeleteDebt(ctx context.Context, userID, id string, now time.Time) error
	GetPayment(ctx context.Context, userID, id string) (*models.DebtPayment, error)
	ListPayments(ctx context.Context, userID, debtID string) ([]*models.DebtPayment, error)
	SumPaymentsInRange(ctx context.Context, userID string, from, to time.Time) (float64, error)
	CreatePayment(ctx context.Context, intent *models.PaymentIntent) (*models.Debt, *models.DebtPayment, error)
	UpdatePayment(ctx context.Context, intent *models.PaymentIntent) (*models.Debt, *models.DebtPayment, error)
	DeletePayment(ctx context.Context, userID, paymentID string, withRollback bool, epsilon float64, now time.Time) (*models.Debt, error)
}

// AccountStore resolves account display names.
type AccountStore interface {
	GetByID(ctx context.Context, userID, id string) (*models.Account, error)
}

// ReplayCache replays the result of an already-applied payment
// creation when a client retries with the same idempotency key.
type ReplayCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

const idempotencyTTL = 24 * time.Hour

type DebtService struct {
	store    DebtStore
	accounts AccountStore
	cache    ReplayCache
	logger   *zap.Logger

	paidEpsilon      float64
	overpayTolerance float64

	// injectable clock for deterministic tests
	now func() time.Time
}

func NewDebtService(store DebtStore, accounts AccountStore, cache ReplayCache, logger *zap.Logger, cfg *config.Config) *DebtService {
	return &DebtService{
		store:            store,
		accounts:         accounts,
		cache:            cache,
		logger:           logger,
		paidEpsilon:      cfg.PaidEpsilon,
		overpayTolerance: cfg.OverpayTolerance,
		now:              time.Now,
	}
}

// ListDebts returns the filtered items plus the summary, which always
// scans all of the user's debts regardless of filters.
func (s *DebtService) ListDebts(ctx context.Context, userID string, f *models.DebtFilter) (*models.DebtListResponse, error) {
	items, err := s.store.ListDebts(ctx, userID, f)
	if err != nil {
		return nil, s.wrap("list debts", err)
	}

	all := items
	if !f.IsZero() {
		all, err = s.store.ListDebts(ctx, userID, nil)
		if err != nil {
			return nil, s.wrap("list debts", err)
		}
	}

	summary, err := s.buildSummary(ctx, userID, all)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []*models.Debt{}
	}
	return &models.DebtListResponse{Items: items, Summary: summary}, nil
}

// buildSummary is a read-time full scan, recomputed on every request.
func (s *DebtService) buildSummary(ctx context.Context, userID string, debts []*models.Debt) (*models.DebtSummary, error) {
	now := s.now().UTC()
	monthStart, nextMonthStart := norm.MonthWindow(now)
	nextMonthEnd := nextMonthStart.AddDate(0, 1, 0)
	soonEnd := now.Add(7 * 24 * time.Hour)

	summary := &models.DebtSummary{}
	for _, d := range debts {
		rem := d.Remaining
		if d.Type == models.DebtTypeDebt {
			summary.TotalDebt += rem
		} else {
			summary.TotalReceivable += rem
		}

		if d.Status == models.DebtStatusPaid || d.DueDate == nil {
			continue
		}
		due := d.DueDate.UTC()
		if d.Type == models.DebtTypeDebt {
			if !due.Before(monthStart) && due.Before(nextMonthStart) {
				summary.DebtDueThisMonth += rem
			} else if !due.Before(nextMonthStart) && due.Before(nextMonthEnd) {
				summary.DebtDueNextMonth += rem
			}
		}
		if !due.Before(now) && !due.After(soonEnd) {
			summary.DueSoon += rem
		}
	}

	paidThisMonth, err := s.store.SumPaymentsInRange(ctx, userID, monthStart, nextMonthStart)
	if err != nil {
		return nil, s.wrap("sum payments", err)
	}
	summary.TotalPaidThisMonth = norm.RoundCurrency(paidThisMonth)
	summary.TotalDebt = norm.RoundCurrency(summary.TotalDebt)
	summary.TotalReceivable = norm.RoundCurrency(summary.TotalReceivable)
	summary.DebtDueThisMonth = norm.RoundCurrency(summary.DebtDueThisMonth)
	summary.DebtDueNextMonth = norm.RoundCurrency(summary.DebtDueNextMonth)
	summary.DueSoon = norm.RoundCurrency(summary.DueSoon)
	return summary, nil
}

func (s *DebtService) GetDebt(ctx context.Context, userID, id string) (*models.DebtDetailResponse, error) {
	debt, err := s.store.GetDebt(ctx, userID, id)
	if err != nil {
		return nil, s.wrap("get debt", err, zap.String("debt_id", id))
	}
	if debt == nil {
		return nil, models.ErrNotFound
	}

	payments, err := s.store.ListPayments(ctx, userID, id)
	if err != nil {
		return nil, s.wrap("list payments", err, zap.String("debt_id", id))
	}
	if payments == nil {
		payments = []*models.DebtPayment{}
	}
	return &models.DebtDetailResponse{Debt: debt, Payments: payments}, nil
}

// CreateDebt validates the input and generates one debt row per tenor
// month, each shifted forward by a calendar month. The returned row is
// the first installment.
func (s *DebtService) CreateDebt(ctx context.Context, userID string, req *models.CreateDebtRequest) (*models.Debt, error) {
	if !validAmount(req.Amount) {
		return nil, models.ErrInvalidAmount
	}
	if req.TenorMonths < 0 {
		return nil, models.ErrInvalidTenor
	}
	tenor := req.TenorMonths
	if tenor == 0 {
		tenor = models.MinTenorMonths
	}
	tenor = norm.ClampInt(tenor, models.MinTenorMonths, models.MaxTenorMonths)

	now := s.now()
	date := now
	if t, ok := norm.ParseDate(req.Date); ok {
		date = t
	}
	var dueDate *time.Time
	if t, ok := norm.ParseDate(req.DueDate); ok {
		dueDate = &t
	}

	debts := make([]*models.Debt, 0, tenor)
	for i := 0; i < tenor; i++ {
		d := &models.Debt{
			ID:            uuid.New().String(),
			UserID:        userID,
			Type:          req.Type,
			PartyName:     req.PartyName,
			Title:         req.Title,
			Notes:         norm.NullableText(req.Notes),
			Date:          norm.AddMonths(date, i),
			Amount:        req.Amount,
			RatePercent:   req.RatePercent,
			TenorMonths:   tenor,
			TenorSequence: i + 1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if dueDate != nil {
			due := norm.AddMonths(*dueDate, i)
			d.DueDate = &due
		}
		d.Remaining = d.Amount
		d.Status = models.EvaluateStatus(d.Amount, 0, d.DueDate, now, s.paidEpsilon)
		debts = append(debts, d)
	}

	if err := s.store.InsertDebts(ctx, debts); err != nil {
		return nil, s.wrap("create debt", err, zap.String("party", req.PartyName))
	}

	s.logger.Info("debt created",
		zap.String("debt_id", debts[0].ID),
		zap.String("type", string(req.Type)),
		zap.Int("tenor_months", tenor),
		zap.Float64("amount", req.Amount))
	return debts[0], nil
}

func (s *DebtService) UpdateDebt(ctx context.Context, userID, id string, req *models.UpdateDebtRequest) (*models.Debt, error) {
	if req.Amount != nil && !validAmount(*req.Amount) {
		return nil, models.ErrInvalidAmount
	}

	patch := &models.DebtPatch{
		Type:        req.Type,
		PartyName:   req.PartyName,
		Title:       req.Title,
		Amount:      req.Amount,
		RatePercent: req.RatePercent,
		PaidEpsilon: s.paidEpsilon,
		Now:         s.now(),
	}
	if req.Notes != nil {
		patch.Notes = norm.NullableText(*req.Notes)
		patch.NotesSet = true
	}
	if req.Date != nil {
		if t, ok := norm.ParseDate(*req.Date); ok {
			patch.Date = &t
		}
	}
	if req.DueDate != nil {
		patch.DueDateSet = true
		if t, ok := norm.ParseDate(*req.DueDate); ok {
			patch.DueDate = &t
		}
	}

	debt, err := s.store.UpdateDebt(ctx, userID, id, patch)
	if err != nil {
		return nil, s.wrap("update debt", err, zap.String("debt_id", id))
	}
	return debt, nil
}

func (s *DebtService) DeleteDebt(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteDebt(ctx, userID, id, s.now()); err != nil {
		return s.wrap("delete debt", err, zap.String("debt_id", id))
	}
	s.logger.Info("debt deleted", zap.String("debt_id", id))
	return nil
}

// CreateDebtPayment records a payment against a debt. Validation runs
// before any write; the overpay guard, mirror creation and aggregate
// recomputation happen atomically in the store. A repeated call with
// the same idempotency key replays the first successful result.
func (s *DebtService) CreateDebtPayment(ctx context.Context, userID, debtID string, req *models.CreateDebtPaymentRequest) (*models.PaymentResult, error) {
	if !validAmount(req.Amount) {
		return nil, models.ErrInvalidAmount
	}

	cacheKey := ""
	if req.IdempotencyKey != "" && s.cache != nil {
		cacheKey = fmt.Sprintf("debt-payment:idem:%s:%s", userID, req.IdempotencyKey)
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != "" {
			var cached models.PaymentResult
			if err := json.Unmarshal([]byte(data), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	intent, err := s.buildIntent(ctx, userID, req.Amount, req.Date, req.Notes,
		req.AccountID, req.CategoryID, req.RecordTransaction, req.MarkAsPaid, req.AllowOverpay)
	if err != nil {
		return nil, err
	}
	intent.DebtID = debtID

	debt, payment, err := s.store.CreatePayment(ctx, intent)
	if err != nil {
		return nil, s.wrap("create payment", err, zap.String("debt_id", debtID))
	}

	result := &models.PaymentResult{Debt: debt, Payment: payment}
	if cacheKey != "" {
		if data, err := json.Marshal(result); err == nil {
			// replay cache is best effort
			_ = s.cache.Set(ctx, cacheKey, data, idempotencyTTL)
		}
	}

	s.logger.Info("debt payment recorded",
		zap.String("debt_id", debtID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", payment.Amount),
		zap.String("status", string(debt.Status)))
	return result, nil
}

// UpdateDebtPayment edits a payment. The overpay baseline excludes the
// payment's original amount; the mirror follows the record_transaction
// flag (updated in place, created, or soft-deleted and unlinked).
func (s *DebtService) UpdateDebtPayment(ctx context.Context, userID, paymentID string, req *models.UpdateDebtPaymentRequest) (*models.PaymentResult, error) {
	if !validAmount(req.Amount) {
		return nil, models.ErrInvalidAmount
	}

	existing, err := s.store.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, s.wrap("get payment", err, zap.String("payment_id", paymentID))
	}
	if existing == nil {
		return nil, models.ErrNotFound
	}

	accountID := req.AccountID
	if accountID == "" && existing.AccountID != nil {
		accountID = *existing.AccountID
	}
	date := req.Date
	if date == "" {
		date = existing.Date.Format(time.RFC3339)
	}

	intent, err := s.buildIntent(ctx, userID, req.Amount, date, req.Notes,
		accountID, req.CategoryID, req.RecordTransaction, req.MarkAsPaid, req.AllowOverpay)
	if err != nil {
		return nil, err
	}
	intent.PaymentID = paymentID

	debt, payment, err := s.store.UpdatePayment(ctx, intent)
	if err != nil {
		return nil, s.wrap("update payment", err, zap.String("payment_id", paymentID))
	}

	s.logger.Info("debt payment updated",
		zap.String("payment_id", paymentID),
		zap.Float64("amount", payment.Amount),
		zap.String("status", string(debt.Status)))
	return &models.PaymentResult{Debt: debt, Payment: payment}, nil
}

// DeleteDebtPayment removes a payment and, when withRollback is set,
// soft-deletes its linked transaction. Status reverts automatically.
func (s *DebtService) DeleteDebtPayment(ctx context.Context, userID, paymentID string, withRollback bool) (*models.Debt, error) {
	debt, err := s.store.DeletePayment(ctx, userID, paymentID, withRollback, s.paidEpsilon, s.now())
	if err != nil {
		return nil, s.wrap("delete payment", err, zap.String("payment_id", paymentID))
	}

	s.logger.Info("debt payment deleted",
		zap.String("payment_id", paymentID),
		zap.Bool("with_rollback", withRollback),
		zap.String("status", string(debt.Status)))
	return debt, nil
}

// buildIntent resolves the shared payment policy: record_transaction
// defaults to true and then requires an existing account, whose
// display name is denormalized onto the payment and mirror.
func (s *DebtService) buildIntent(ctx context.Context, userID string, amount float64, dateStr, notes, accountID, categoryID string, recordTransaction, markAsPaid *bool, allowOverpay bool) (*models.PaymentIntent, error) {
	record := recordTransaction == nil || *recordTransaction

	intent := &models.PaymentIntent{
		UserID:            userID,
		Amount:            amount,
		Notes:             norm.NullableText(notes),
		RecordTransaction: record,
		MarkAsPaid:        markAsPaid,
		AllowOverpay:      allowOverpay,
		PaidEpsilon:       s.paidEpsilon,
		OverpayTolerance:  s.overpayTolerance,
		Now:               s.now(),
	}

	intent.Date = intent.Now
	if t, ok := norm.ParseDate(dateStr); ok {
		intent.Date = t
	}

	if record {
		if accountID == "" {
			return nil, models.ErrMissingAccount
		}
		account, err := s.accounts.GetByID(ctx, userID, accountID)
		if err != nil {
			return nil, s.wrap("resolve account", err, zap.String("account_id", accountID))
		}
		if account == nil {
			return nil, models.ErrNotFound
		}
		intent.AccountID = &account.ID
		intent.AccountName = &account.Name
	} else if accountID != "" {
		id := accountID
		intent.AccountID = &id
	}
	if categoryID != "" {
		id := categoryID
		intent.CategoryID = &id
	}
	return intent, nil
}

func (s *DebtService) wrap(op string, err error, fields ...zap.Field) error {
	if err == nil || isDomainErr(err) {
		return err
	}
	s.logger.Error("store operation failed",
		append(fields, zap.String("op", op), zap.Error(err))...)
	return &StoreError{Op: op, Err: err}
}

func validAmount(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && a > 0
}
