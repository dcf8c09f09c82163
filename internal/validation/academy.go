// Package validation holds request-level validation rules.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var academyNameRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} '&-]{2,63}$`)

var reservedAcademyNames = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"auth":      {},
	"academies": {},
	"users":     {},
	"posts":     {},
	"comments":  {},
	"ws":        {},
	"swagger":   {},
	"metrics":   {},
	"healthz":   {},
	"login":     {},
	"signup":    {},
}

// ValidateAcademyName validates academy name format and reserved names.
func ValidateAcademyName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if !academyNameRegex.MatchString(trimmed) {
		return fmt.Errorf("name must be 3-64 characters and contain only letters, numbers, spaces, and '&-")
	}
	if _, exists := reservedAcademyNames[strings.ToLower(trimmed)]; exists {
		return fmt.Errorf("name is reserved")
	}
	return nil
}

// ValidatePassword enforces minimum credential strength at signup.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates input beyond 72 bytes
		return fmt.Errorf("password must be at most 72 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}
	return nil
}
