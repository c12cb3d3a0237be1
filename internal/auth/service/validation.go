package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
)

// PasswordPolicy lists what a new password must contain.
type PasswordPolicy struct {
	RequiredLength         int
	MaxLength              int // 0 means unbounded
	RequireDigit           bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireNonAlphanumeric bool
}

// DefaultPasswordPolicy accepts passwords like "secret1".
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		RequiredLength:   authsdk.LoginPasswordMinLength,
		MaxLength:        authsdk.LoginPasswordMaxLength,
		RequireDigit:     true,
		RequireLowercase: true,
	}
}

// Validate returns every rule the password breaks, in a stable order.
func (pp PasswordPolicy) Validate(password string) []domain.ValidationError {
	var errs []domain.ValidationError

	n := len([]rune(password))
	if n < pp.RequiredLength {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordTooShort,
			Description: fmt.Sprintf("Passwords must be at least %d characters.", pp.RequiredLength),
		})
	}
	if pp.MaxLength > 0 && n > pp.MaxLength {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordTooLong,
			Description: fmt.Sprintf("Passwords must be at most %d characters.", pp.MaxLength),
		})
	}

	var digit, lower, upper, other bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}

	if pp.RequireNonAlphanumeric && !other {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordRequiresNonAlphanumeric,
			Description: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if pp.RequireDigit && !digit {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordRequiresDigit,
			Description: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if pp.RequireLowercase && !lower {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordRequiresLower,
			Description: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if pp.RequireUppercase && !upper {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodePasswordRequiresUpper,
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}
	return errs
}

// IsValidEmail accepts a bare address such as "a@x.io". Display names and
// angle brackets are rejected.
func IsValidEmail(email string) bool {
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == ""
}

// validateRegistration checks the shape of a registration. Uniqueness is
// checked against the store separately.
func validateRegistration(reg domain.Registration, policy PasswordPolicy) []domain.ValidationError {
	var errs []domain.ValidationError

	if strings.TrimSpace(reg.FirstName) == "" {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodeFirstNameRequired,
			Description: "First name is required.",
		})
	}
	if strings.TrimSpace(reg.LastName) == "" {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodeLastNameRequired,
			Description: "Last name is required.",
		})
	}
	if !IsValidEmail(strings.TrimSpace(reg.Email)) {
		errs = append(errs, domain.ValidationError{
			Code:        domain.CodeInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", reg.Email),
		})
	}

	return append(errs, policy.Validate(reg.Password)...)
}

func duplicateEmail(email string) domain.ValidationError {
	return domain.ValidationError{
		Code:        domain.CodeDuplicateEmail,
		Description: fmt.Sprintf("Email '%s' is already taken.", email),
	}
}
