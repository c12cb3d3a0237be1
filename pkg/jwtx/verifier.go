package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// VerifierOptions captures what a token must satisfy to be accepted.
type VerifierOptions struct {
	// Issuer the token must have (claims.iss).
	Issuer string

	// Audience the token must contain (claims.aud).
	Audience string

	// Key is the shared HMAC secret.
	Key []byte
}

// Verifier validates HS256 access tokens and gives you back the claims if
// they're legit. No clock skew is tolerated.
type Verifier struct {
	key    []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for tokens minted by an Issuer with the
// same options.
func NewVerifier(opts VerifierOptions) (*Verifier, error) {
	if len(opts.Key) == 0 {
		return nil, ErrMissingSigningKey
	}

	key := make([]byte, len(opts.Key))
	copy(key, opts.Key)

	return &Verifier{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(opts.Issuer),
			jwt.WithAudience(opts.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// Verify checks signature, algorithm, issuer, audience and lifetime and
// returns the token claims.
func (v *Verifier) Verify(token string) (ClaimSet, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return fromMapClaims(claims), nil
}

// ParseUnverified decodes the token payload without checking signature or
// lifetime. Only use the result to locate a principal; never trust it.
func ParseUnverified(token string) (ClaimSet, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromMapClaims(claims), nil
}

// classify maps parser errors onto package sentinels.
func classify(err error) error {
	var target error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		target = ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		target = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		target = ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		target = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		target = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		target = ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		target = ErrAudience
	default:
		target = ErrInvalidClaim
	}
	return fmt.Errorf("%w: %v", target, err)
}
