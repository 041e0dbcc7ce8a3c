package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email has a plausible address shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether password meets the length policy.
func ValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// PasswordFitsHash reports whether password is short enough to be hashed.
func PasswordFitsHash(password string) bool {
	return len(password) <= MaxPasswordBytes
}
