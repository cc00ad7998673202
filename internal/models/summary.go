// internal/models/summary.go
package models

// DebtSummary is the dashboard rollup. It is recomputed from live rows
// on every listing request and never persisted or cached.
type DebtSummary struct {
	TotalDebt          float64 `json:"totalDebt"`
	DebtDueThisMonth   float64 `json:"debtDueThisMonth"`
	DebtDueNextMonth   float64 `json:"debtDueNextMonth"`
	TotalReceivable    float64 `json:"totalReceivable"`
	TotalPaidThisMonth float64 `json:"totalPaidThisMonth"`
	DueSoon            float64 `json:"dueSoon"`
}
