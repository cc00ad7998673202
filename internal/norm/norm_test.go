// internal/norm/norm_test.go
package norm

import (
	"database/sql"
	"math"
	"testing"
	"time"
)

func TestSafeNumber(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"nil", nil, 0},
		{"float64", 1250.5, 1250.5},
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"numeric string", "1000000.25", 1000000.25},
		{"padded string", "  99.5 ", 99.5},
		{"garbage string", "abc", 0},
		{"empty string", "", 0},
		{"bytes", []byte("123.45"), 123.45},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"null string", sql.NullString{}, 0},
		{"valid null string", sql.NullString{String: "55", Valid: true}, 55},
		{"null float", sql.NullFloat64{}, 0},
		{"bool falls through", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeNumber(tt.in); got != tt.want {
				t.Errorf("SafeNumber(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNullableText(t *testing.T) {
	if got := NullableText("   "); got != nil {
		t.Errorf("NullableText(blank) = %q, want nil", *got)
	}
	got := NullableText("  catatan ")
	if got == nil || *got != "catatan" {
		t.Errorf("NullableText(padded) = %v, want catatan", got)
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{0, 1, 36, 1},
		{40, 1, 36, 36},
		{12, 1, 36, 12},
		{-5, 1, 36, 1},
	}
	for _, tt := range tests {
		if got := ClampInt(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"rfc3339", "2024-05-15T10:30:00Z", true},
		{"date only", "2024-05-15", true},
		{"bare datetime", "2024-05-15T10:30:00", true},
		{"empty", "", false},
		{"garbage", "15/05/2024", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseDate(tt.in); ok != tt.ok {
				t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestDayFloor(t *testing.T) {
	in := time.Date(2024, 5, 15, 18, 45, 12, 99, time.UTC)
	want := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	if got := DayFloor(in); !got.Equal(want) {
		t.Errorf("DayFloor() = %v, want %v", got, want)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{
			name:   "plain shift",
			in:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 29",
			in:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 28 off leap year",
			in:     time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "year rollover",
			in:     time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.in, tt.months); !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.in, tt.months, got, tt.want)
			}
		})
	}
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestRoundCurrency(t *testing.T) {
	if got := RoundCurrency(10.006); got != 10.01 {
		t.Errorf("RoundCurrency(10.006) = %v, want 10.01", got)
	}
	if got := RoundCurrency(10.004); got != 10.0 {
		t.Errorf("RoundCurrency(10.004) = %v, want 10", got)
	}
}
