// internal/norm/norm.go
// Normalization boundary for values coming back from the store or from
// request payloads. The hosted store does not guarantee type fidelity
// (numeric columns may arrive as strings), so every persisted row passes
// through these helpers before becoming a domain entity.
package norm

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"
)

// SafeNumber parses v into a float64, defaulting to 0 for anything that
// is missing, malformed or non-finite.
func SafeNumber(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(n)
	case float32:
		return finiteOrZero(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return parseFloat(n)
	case []byte:
		return parseFloat(string(n))
	case sql.NullFloat64:
		if !n.Valid {
			return 0
		}
		return finiteOrZero(n.Float64)
	case sql.NullString:
		if !n.Valid {
			return 0
		}
		return parseFloat(n.String)
	default:
		return 0
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(f)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RoundCurrency rounds to two decimal places, half away from zero.
func RoundCurrency(f float64) float64 {
	return math.Round(f*100) / 100
}

// NullableText trims s and returns nil for the empty result, so blank
// notes never persist as empty strings.
func NullableText(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}

// ClampInt bounds v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts the timestamp shapes the clients actually send:
// full RFC3339, a bare datetime, or a date-only string.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayFloor truncates t to the start of its calendar day in UTC.
func DayFloor(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts t forward by the given number of calendar months,
// clamping to the last day of the target month (Jan 31 + 1 month is
// Feb 28, not Mar 3).
func AddMonths(t time.Time, months int) time.Time {
	u := t.UTC()
	year, month, day := u.Date()
	first := time.Date(year, month, 1, u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
	shifted := first.AddDate(0, months, 0)
	last := daysIn(shifted.Year(), shifted.Month())
	if day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day, u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

// MonthWindow returns the UTC half-open window [first of month, first of
// next month) containing t.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
