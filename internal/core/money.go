// Package core holds the domain types shared by the statement pipeline,
// the stores and the dashboard aggregator.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a signed amount in cents. Keeping amounts integral makes the
// per-bucket rounding of the dashboard exact: every value is already at
// two-decimal precision, so sums of rounded values never drift.
type Money struct {
	Cents int64
}

// CentsOf builds a Money from a cent count.
func CentsOf(cents int64) Money { return Money{Cents: cents} }

// Sign returns -1, 0 or 1 according to the sign of the amount.
func (m Money) Sign() int {
	switch {
	case m.Cents > 0:
		return 1
	case m.Cents < 0:
		return -1
	default:
		return 0
	}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{Cents: m.Cents + other.Cents} }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return Money{Cents: m.Cents - other.Cents} }

// String renders the amount as a plain 2-decimal number, e.g. "-16.49".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// MarshalJSON emits the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) and stores it as
// cents with half-up rounding on the third decimal.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	cents, err := ParseAmountCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// ParseAmountCents converts a statement amount to signed cents.
//
// Currency symbols ($) and thousands separators (,) are stripped first, the
// way bank CSV exports write them. A leading + or - sets the sign. The third
// decimal digit rounds half-up. An empty or non-numeric value is an error;
// zero itself parses fine, the drop-on-zero policy lives in the normalizer.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, then half-up rounding on the third.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := iv*100 + frac
	if neg {
		cents = -cents
	}
	return cents, nil
}
