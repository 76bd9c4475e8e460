package password

import (
	"errors"
	"unicode"
)

const minPolicyLength = 8

// Policy violation reasons returned by [ValidateStrength].
var (
	ErrTooShort    = errors.New("password must be at least 8 characters long")
	ErrNoDigit     = errors.New("password must contain at least one digit")
	ErrNoUppercase = errors.New("password must contain at least one uppercase letter")
)

// ValidateStrength checks the registration password policy: minimum length,
// at least one digit, at least one uppercase letter. It is applied at
// registration and password-change time only; login accepts whatever digest
// is stored.
func ValidateStrength(password string) error {
	if len(password) < minPolicyLength {
		return ErrTooShort
	}

	var hasDigit, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}

	if !hasDigit {
		return ErrNoDigit
	}
	if !hasUpper {
		return ErrNoUppercase
	}

	return nil
}
