// internal/models/debt_test.go
package models

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func TestEvaluateStatus(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	nextWeek := testNow.AddDate(0, 0, 7)

	tests := []struct {
		name      string
		amount    float64
		paidTotal float64
		dueDate   *time.Time
		want      DebtStatus
	}{
		{"exact payoff", 1000000, 1000000, nil, DebtStatusPaid},
		{"payoff within epsilon", 1000000, 999999.99995, nil, DebtStatusPaid},
		{"overpaid", 500000, 600000, nil, DebtStatusPaid},
		{"unpaid past due", 1000000, 0, &yesterday, DebtStatusOverdue},
		{"partially paid past due", 1000000, 500000, &yesterday, DebtStatusOverdue},
		{"unpaid future due", 1000000, 0, &nextWeek, DebtStatusOngoing},
		{"unpaid no due date", 1000000, 0, nil, DebtStatusOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStatus(tt.amount, tt.paidTotal, tt.dueDate, testNow, DefaultPaidEpsilon)
			if got != tt.want {
				t.Errorf("EvaluateStatus() = %v, want %v", got, tt.want)
			}
			// pure: same inputs, same result
			again := EvaluateStatus(tt.amount, tt.paidTotal, tt.dueDate, testNow, DefaultPaidEpsilon)
			if again != got {
				t.Errorf("EvaluateStatus() not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestCheckOverpay(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		baseline     float64
		payment      float64
		allowOverpay bool
		wantErr      bool
	}{
		{"exact remaining", 1000000, 0, 1000000, false, false},
		{"partial", 1000000, 0, 400000, false, false},
		{"half cent over within tolerance", 100, 0, 100.005, false, false},
		{"one unit over rejected", 500000, 0, 500001, false, true},
		{"one unit over allowed", 500000, 0, 500001, true, false},
		{"baseline counts prior payments", 1000000, 900000, 200000, false, true},
		{"edit baseline excludes original", 1000000, 600000, 400000, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOverpay(tt.amount, tt.baseline, tt.payment, DefaultOverpayTolerance, tt.allowOverpay)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckOverpay() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOverpayRejected) {
				t.Errorf("CheckOverpay() err = %v, want ErrOverpayRejected", err)
			}
		})
	}
}

func TestResolveSettlement(t *testing.T) {
	paymentDate := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
	nextWeek := testNow.AddDate(0, 0, 7)

	t.Run("settled defaults to paid", func(t *testing.T) {
		status, paidAt := ResolveSettlement(1000, 1000, nil, testNow, DefaultPaidEpsilon, nil, paymentDate)
		if status != DebtStatusPaid {
			t.Errorf("status = %v, want paid", status)
		}
		if paidAt == nil || !paidAt.Equal(paymentDate) {
			t.Errorf("paidAt = %v, want %v", paidAt, paymentDate)
		}
	})

	t.Run("settled with markAsPaid false stays ongoing", func(t *testing.T) {
		status, paidAt := ResolveSettlement(1000, 1000, nil, testNow, DefaultPaidEpsilon, boolPtr(false), paymentDate)
		if status != DebtStatusOngoing {
			t.Errorf("status = %v, want ongoing", status)
		}
		if paidAt != nil {
			t.Errorf("paidAt = %v, want nil", paidAt)
		}
	})

	t.Run("partial payment evaluates automatically", func(t *testing.T) {
		status, paidAt := ResolveSettlement(1000, 400, &nextWeek, testNow, DefaultPaidEpsilon, boolPtr(true), paymentDate)
		if status != DebtStatusOngoing {
			t.Errorf("status = %v, want ongoing", status)
		}
		if paidAt != nil {
			t.Errorf("paidAt = %v, want nil", paidAt)
		}
	})

	t.Run("overpaid keeps full ledger sum", func(t *testing.T) {
		status, _ := ResolveSettlement(500000, 600000, nil, testNow, DefaultPaidEpsilon, nil, paymentDate)
		if status != DebtStatusPaid {
			t.Errorf("status = %v, want paid", status)
		}
	})
}

func TestRemainingOf(t *testing.T) {
	if got := RemainingOf(1000, 400); got != 600 {
		t.Errorf("RemainingOf(1000, 400) = %v, want 600", got)
	}
	if got := RemainingOf(500000, 600000); got != 0 {
		t.Errorf("RemainingOf(overpaid) = %v, want 0", got)
	}
}

func TestMirrorType(t *testing.T) {
	if got := DebtTypeDebt.MirrorType(); got != TransactionExpense {
		t.Errorf("debt mirror = %v, want expense", got)
	}
	if got := DebtTypeReceivable.MirrorType(); got != TransactionIncome {
		t.Errorf("receivable mirror = %v, want income", got)
	}
}

func TestMirrorTitle(t *testing.T) {
	tests := []struct {
		name string
		debt Debt
		want string
	}{
		{
			name: "uses own title",
			debt: Debt{Type: DebtTypeDebt, Title: "Cicilan motor", PartyName: "Budi"},
			want: "Cicilan motor",
		},
		{
			name: "generated debt label",
			debt: Debt{Type: DebtTypeDebt, Title: "  ", PartyName: "Budi"},
			want: "Pembayaran hutang - Budi",
		},
		{
			name: "generated receivable label",
			debt: Debt{Type: DebtTypeReceivable, PartyName: "Sari"},
			want: "Pelunasan piutang - Sari",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.debt.MirrorTitle(); got != tt.want {
				t.Errorf("MirrorTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDebtFilterIsZero(t *testing.T) {
	var nilFilter *DebtFilter
	if !nilFilter.IsZero() {
		t.Error("nil filter should be zero")
	}
	if !(&DebtFilter{}).IsZero() {
		t.Error("empty filter should be zero")
	}
	if (&DebtFilter{Type: DebtTypeDebt}).IsZero() {
		t.Error("typed filter should not be zero")
	}
}
