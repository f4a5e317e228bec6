package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateQuery validates the user's chat query.
func ValidateQuery(query string) error {
	if len(query) == 0 {
		return errors.New("query cannot be empty")
	}
	if len(query) > 100000 { // ~100KB limit
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(query) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}

// ValidateOrganizationID validates an organization ID. Record store ids
// are alphanumeric; anything outside that set would end up verbatim in
// session keys and subjects, where dots and spaces are structural.
func ValidateOrganizationID(id string) error {
	if len(id) == 0 {
		return errors.New("organization ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("organization ID exceeds maximum length")
	}
	for _, r := range id {
		if !isOrganizationIDRune(r) {
			return errors.New("organization ID contains invalid characters")
		}
	}
	return nil
}

func isOrganizationIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
