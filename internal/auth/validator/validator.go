// Package validator registers the auth-specific validation rules.
package validator

import (
	"unicode"

	"leadlift_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// StrongPasswordTag is the struct tag for the password policy.
const StrongPasswordTag = "strongpassword"

// PasswordPolicy describes the password requirements for API error messages.
const PasswordPolicy = "password must be at least 8 characters and include an uppercase letter, a lowercase letter and a number"

// Register adds the auth rules to val.
func Register(val *validator.Validator) error {
	return val.RegisterValidation(StrongPasswordTag, func(fl playground.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// IsStrongPassword checks length and character classes.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
