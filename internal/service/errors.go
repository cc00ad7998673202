// internal/service/errors.go
package service

import (
	"errors"
	"fmt"

	"github.com/lilyxseo/HematWoi-sub009/internal/models"
)

// StoreError wraps a persistence fault with the operation that hit it.
// Handlers map it to a generic user-facing message so driver internals
// never leak to the UI.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// isDomainErr reports whether err is one of the ledger sentinels,
// which propagate unchanged instead of being wrapped as store faults.
func isDomainErr(err error) bool {
	return errors.Is(err, models.ErrInvalidAmount) ||
		errors.Is(err, models.ErrInvalidTenor) ||
		errors.Is(err, models.ErrMissingAccount) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrOverpayRejected)
}
