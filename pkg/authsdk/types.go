package authsdk

import (
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-validation error response,
// e.g. {"errorType":"Not Found","errorMessage":"..."}.
type ErrorResponse = httpx.ErrorDetails

// ValidationErrorResponse is the body of a 400 Bad Request. It maps a field
// name or validation code to its messages, e.g.
// {"DuplicateEmail":["Email 'a@x.io' is already taken."]}.
type ValidationErrorResponse map[string][]string

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest is the body of POST /api/account/register and
// POST /api/account/admin.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest is the body of POST /api/account/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned from login and refresh. The whole value is
// echoed back to POST /api/account/refresh-token to obtain a new pair.
type AuthResponse struct {
	// AccessToken is the HS256 JWT used to authenticate API requests
	AccessToken string `json:"accessToken"`

	// PrincipalID identifies the principal the tokens were issued to
	PrincipalID string `json:"principalId"`

	// RefreshToken is the opaque single-use refresh token
	RefreshToken string `json:"refreshToken"`
}

// ProfileResponse is returned from GET /api/account/me.
type ProfileResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the principal store status
	Database string `json:"database"`

	// TokenStore indicates the refresh token slot store status
	TokenStore string `json:"tokenStore"`
}
