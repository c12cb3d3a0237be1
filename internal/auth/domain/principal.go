package domain

import (
	"strings"
	"time"
)

// Principal is an authenticated identity. The password hash and security
// stamp are only changed through the store.
type Principal struct {
	ID              string // ULID
	Email           string
	NormalizedEmail string
	FirstName       string
	LastName        string
	PasswordHash    string // argon2 encoded
	SecurityStamp   string // rotated to invalidate every refresh token
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PrincipalProfile is the public view of a principal.
type PrincipalProfile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// NormalizeEmail folds an email for case-insensitive lookup.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// Claim is a stored custom claim attached to a principal.
type Claim struct {
	Type  string
	Value string
}
