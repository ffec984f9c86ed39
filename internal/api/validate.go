package api

import (
	"regexp"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validPassword enforces the password policy: at least 8 characters with an
// uppercase letter, a lowercase letter, a digit, and a symbol.
func validPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

const passwordPolicyMessage = "must be at least 8 characters and include upper case, lower case, a digit, and a symbol"

func validName(name string) bool {
	return name == "" || len(name) >= 2
}
