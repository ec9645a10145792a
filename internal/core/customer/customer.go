// Package customer validates how a shopper identifies themselves before any
// order lookup happens.
package customer

import (
	"fmt"
	"regexp"
	"strings"
)

// Identity is what the customer told us about themselves.
type Identity struct {
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Name        string `json:"name,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// ValidationError reports malformed identification input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	reEmail = regexp.MustCompile(`(?i)^[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}$`)
	reOrder = regexp.MustCompile(`^#?[A-Za-z0-9\-]{3,32}$`)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps digits and a leading '+'.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	if strings.HasPrefix(s, "+") {
		b.WriteByte('+')
		s = s[1:]
	}
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return reEmail.MatchString(s)
}

// Normalize validates an identity and returns its canonical form.
// An email is always required; phone and order number are optional but must
// be well-formed when given.
func Normalize(in Identity) (Identity, error) {
	out := Identity{
		Email:       NormalizeEmail(in.Email),
		Phone:       NormalizePhone(in.Phone),
		Name:        strings.TrimSpace(in.Name),
		OrderNumber: strings.TrimSpace(in.OrderNumber),
	}

	if out.Email == "" {
		return Identity{}, &ValidationError{Field: "email", Reason: "an email address is required"}
	}
	if !IsEmail(out.Email) {
		return Identity{}, &ValidationError{Field: "email", Reason: fmt.Sprintf("%q is not a valid email address", in.Email)}
	}

	if in.Phone != "" {
		digits := strings.TrimPrefix(out.Phone, "+")
		if len(digits) < 7 || len(digits) > 15 {
			return Identity{}, &ValidationError{Field: "phone", Reason: fmt.Sprintf("%q is not a valid phone number", in.Phone)}
		}
	}

	if out.OrderNumber != "" && !reOrder.MatchString(out.OrderNumber) {
		return Identity{}, &ValidationError{Field: "orderNumber", Reason: fmt.Sprintf("%q is not a valid order number", in.OrderNumber)}
	}

	return out, nil
}
