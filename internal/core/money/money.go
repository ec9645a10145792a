// Package money holds monetary amounts as integer minor units (cents).
// Binary floating point never touches an amount: parsing, percentage math
// and rendering all work on int64.
package money

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Scale is the number of fraction digits for every supported currency.
const Scale = 2

const minorPerMajor = 100

// Amount is a monetary value in minor units.
type Amount int64

// FromMinor wraps a minor-unit value.
func FromMinor(minor int64) Amount {
	return Amount(minor)
}

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 {
	return int64(a)
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// Times multiplies the amount by an integer quantity.
func (a Amount) Times(qty int) Amount {
	return a * Amount(qty)
}

// Percent returns pct percent of a, rounded half-up (half away from zero)
// to the nearest minor unit.
func (a Amount) Percent(pct int) Amount {
	p := int64(a) * int64(pct)
	if p < 0 {
		return Amount(-((-p + 50) / 100))
	}
	return Amount((p + 50) / 100)
}

// IsZero reports whether the amount is 0.
func (a Amount) IsZero() bool {
	return a == 0
}

// String renders the amount with exactly two fraction digits, e.g. "20.00".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorPerMajor, v%minorPerMajor)
}

// Display renders the amount for customers, e.g. "$20.00".
func (a Amount) Display() string {
	if a < 0 {
		return "-$" + (-a).String()
	}
	return "$" + a.String()
}

// Parse reads a decimal string such as "19.99", "-3", "5.5" or "$12.00".
// Digits beyond the second fraction digit are rounded half-up.
func Parse(s string) (Amount, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return 0, fmt.Errorf("invalid amount %q: empty", s)
	}

	neg := false
	switch raw[0] {
	case '-':
		neg = true
		raw = raw[1:]
	case '+':
		raw = raw[1:]
	}

	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var minor int64
	for i := 0; i < Scale; i++ {
		minor *= 10
		if i < len(frac) {
			minor += int64(frac[i] - '0')
		}
	}
	if len(frac) > Scale && frac[Scale] >= '5' {
		minor++
	}

	total := major*minorPerMajor + minor
	if neg {
		total = -total
	}
	return Amount(total), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalJSON encodes the amount as a JSON number with two fraction digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if strings.ContainsAny(s, "eE") {
		return fmt.Errorf("invalid amount %s: exponent notation not supported", data)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalText renders the amount as a decimal string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string; used by YAML fixtures and flags.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
