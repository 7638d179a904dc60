// Package email has small helpers for addressing people by name when all we
// have is their address. Used to fill in display names at registration time
// and in notification greetings.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail guesses a (first, last) pair from the local part of an
// address: "jean.dupont@corp.example" becomes ("Jean", "Dupont").
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
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
