package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var phoneRe = regexp.MustCompile(`^998\d{9}$`)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// StrongPassword requires at least six characters with an upper-case
// letter, a lower-case letter and a digit.
func StrongPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// NormalizePhone strips spaces, dashes and a leading '+' so that numbers
// shared from a Telegram contact match typed ones.
func NormalizePhone(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "+")
	return strings.NewReplacer(" ", "", "-", "").Replace(p)
}

// ValidPhone reports whether p is 998 followed by nine digits.
func ValidPhone(p string) bool { return phoneRe.MatchString(p) }
