package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSigningKey is returned when no symmetric key is configured.
	ErrMissingSigningKey = errors.New("jwtx: missing signing key")
	ErrInvalidTTL        = errors.New("jwtx: token lifetime must be positive")
)

// IssuerOptions configures an HS256 token issuer.
type IssuerOptions struct {
	// Issuer is written to the "iss" claim.
	Issuer string

	// Audience is written to the "aud" claim.
	Audience string

	// Key is the shared HMAC secret. It must not be empty.
	Key []byte

	// TTL is the lifetime of every issued token.
	TTL time.Duration
}

// Issuer mints HS256-signed access tokens from a ClaimSet.
type Issuer struct {
	issuer   string
	audience string
	key      []byte
	ttl      time.Duration
}

// NewIssuer validates the options and returns an Issuer.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if len(opts.Key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if opts.TTL <= 0 {
		return nil, ErrInvalidTTL
	}

	key := make([]byte, len(opts.Key))
	copy(key, opts.Key)

	return &Issuer{
		issuer:   opts.Issuer,
		audience: opts.Audience,
		key:      key,
		ttl:      opts.TTL,
	}, nil
}

// TTL returns the configured access token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs the claim set. The token expires at now + TTL. The iss, aud,
// iat and exp claims always come from the issuer configuration.
func (i *Issuer) Issue(cs ClaimSet, now time.Time) (string, error) {
	claims := cs.payload()
	claims["iss"] = i.issuer
	claims["aud"] = i.audience
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(i.ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}
