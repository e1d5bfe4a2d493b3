// Package validation checks user-submitted forms and account fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

const (
	maxUsernameLen = 150
	minPasswordLen = 8
	maxPasswordLen = 128
	maxEmailLen    = 254
	maxSlugLen     = 64
)

// ValidateUsername accepts up to 150 letters, digits and @ . + - _.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len([]rune(username)) > maxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", maxUsernameLen)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidatePassword rejects short, overlong, all-numeric and letter-only passwords.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
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
	if !hasLetter {
		return fmt.Errorf("password cannot be entirely numeric")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	if isCommonPassword(password) {
		return fmt.Errorf("password is too common")
	}
	return nil
}

var commonPasswords = map[string]struct{}{
	"password1": {}, "password123": {}, "qwerty123": {}, "abc12345": {},
	"letmein1": {}, "welcome1": {}, "iloveyou1": {}, "admin123": {},
}

func isCommonPassword(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

// ValidateEmail checks basic email format. An empty address is allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > maxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLen)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSlug accepts URL-safe identifiers of letters, digits, hyphens and underscores.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLen {
		return fmt.Errorf("slug must be 1-%d characters", maxSlugLen)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug may contain only latin letters, digits, hyphens and underscores")
	}
	return nil
}
