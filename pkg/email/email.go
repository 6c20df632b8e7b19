// Package email holds small helpers for working with addresses.
package email

import (
	"net/mail"
	"strings"
	"unicode"
)

// Normalize lowercases and trims an address for storage and comparison.
// Invitation email matching is case-insensitive end to end.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether the address is syntactically valid (RFC 5322 shaped).
func Valid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}

// DeriveName guesses a first/last name pair from the local part of an
// address. Used as a display fallback when a redeemed invitation carries no
// profile names.
func DeriveName(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
