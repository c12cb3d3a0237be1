package domain

import "strings"

// Seeded role names.
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

type Role struct {
	ID             string
	Name           string
	NormalizedName string
}

// NormalizeRoleName folds a role name for case-insensitive lookup.
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
