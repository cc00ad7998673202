// internal/models/errors.go
package models

import "errors"

// Sentinel errors of the debt ledger domain. Validation errors are
// raised before any write reaches the store; handlers map each of
// these to a stable HTTP status.
var (
	ErrInvalidAmount   = errors.New("jumlah harus lebih besar dari 0")
	ErrInvalidTenor    = errors.New("tenor harus antara 1 dan 36 bulan")
	ErrMissingAccount  = errors.New("akun wajib dipilih saat mencatat transaksi")
	ErrNotFound        = errors.New("data tidak ditemukan")
	ErrOverpayRejected = errors.New("pembayaran melebihi sisa tagihan")
)
