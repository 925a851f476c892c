package password

import (
	"errors"
	"strings"
	"unicode"
)

const (
	MinLength = 8
	MaxLength = 128

	specialChars = `!@#$%^&*(),.?":{}|<>`
)

var (
	ErrTooShort       = errors.New("password must be at least 8 characters long")
	ErrTooLong        = errors.New("password must be at most 128 characters long")
	ErrMissingUpper   = errors.New("password must contain at least one uppercase letter")
	ErrMissingLower   = errors.New("password must contain at least one lowercase letter")
	ErrMissingDigit   = errors.New("password must contain at least one digit")
	ErrMissingSpecial = errors.New("password must contain at least one special character")
)

// Validate enforces the account password policy and returns the first rule broken.
func Validate(pw string) error {
	n := len([]rune(pw))
	if n < MinLength {
		return ErrTooShort
	}
	if n > MaxLength {
		return ErrTooLong
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	switch {
	case !upper:
		return ErrMissingUpper
	case !lower:
		return ErrMissingLower
	case !digit:
		return ErrMissingDigit
	case !special:
		return ErrMissingSpecial
	}
	return nil
}
