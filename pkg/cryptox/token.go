package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Entropy of generated tokens, in bytes before encoding.
const (
	TokenSize128 = 16 // security stamps
	TokenSize256 = 32 // refresh tokens
)

var tokenEncoding = base64.RawURLEncoding

// GenerateToken returns size random bytes, base64url encoded without
// padding.
func GenerateToken(size int) (string, error) {
	if size < 1 {
		return "", fmt.Errorf("cryptox: token size %d is not positive", size)
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return tokenEncoding.EncodeToString(raw), nil
}

// FingerprintToken is the value stored in place of a bearer secret: the
// base64url SHA-256 of the token, 43 characters long.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenEncoding.EncodeToString(sum[:])
}

// MatchesFingerprint reports whether token has the given fingerprint.
func MatchesFingerprint(token, fingerprint string) bool {
	return ConstantTimeEqual(FingerprintToken(token), fingerprint)
}

// ConstantTimeEqual compares secrets in time independent of where they
// first differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
