// Package stringutil provides small string helpers shared by the WhatsApp
// and digest code.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone reduces a phone number to the bare digits the Cloud API
// uses, dropping a leading "+", spaces, dashes, dots and parentheses.
// Anything else is left in place so IsNumeric can reject it.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '+', ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// IsPhoneNumber reports whether s normalizes to 8 to 15 digits, the E.164
// range without the country prefix sign.
func IsPhoneNumber(s string) bool {
	n := NormalizePhone(s)
	return len(n) >= 8 && len(n) <= 15 && IsNumeric(n)
}
