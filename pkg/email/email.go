// Package email normalizes addresses and derives display names from them.
package email

import (
	"net/mail"
	"strings"
	"unicode"

	dErrors "territorial/pkg/domain-errors"
)

// Normalize trims and lowercases an address and checks it parses.
func Normalize(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return "", dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return address, nil
}

// DisplayNameFromEmail builds "First Last" from the local part, used when a
// registration omits the name.
func DisplayNameFromEmail(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	switch len(parts) {
	case 0:
		return "Member"
	case 1:
		return capitalize(parts[0])
	default:
		return capitalize(parts[0]) + " " + capitalize(parts[len(parts)-1])
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
