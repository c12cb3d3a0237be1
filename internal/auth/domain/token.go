package domain

import "time"

// Refresh token slot coordinates.
const (
	RefreshTokenProvider = "HotelListingApi"
	RefreshTokenPurpose  = "RefreshToken"
)

// AuthResponse is what login and refresh hand back to the client. The
// principal id must match the principal named by the access token.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	PrincipalID  string `json:"principalId"`
	RefreshToken string `json:"refreshToken"`
}

// TokenSlot is the single live refresh token for a (principal, provider,
// purpose) triple. Only the fingerprint of the token is kept.
type TokenSlot struct {
	PrincipalID   string
	Provider      string
	Purpose       string
	ValueHash     string // base64url SHA-256 of the raw token
	SecurityStamp string // principal stamp at the time of issue
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the slot is past its expiry at now.
func (s TokenSlot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
