package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidHash      = errors.New("invalid hash format")
)

// Argon2Params are the Argon2id cost settings recorded in each hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are used for every new hash. Stored hashes made with other
// settings still verify, and NeedsRehash reports them.
var DefaultParams = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

const phcPrefix = "$argon2id$v=19$"

var phcEncoding = base64.RawStdEncoding

// argon2Hash is a parsed "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func (h argon2Hash) String() string {
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s", phcPrefix,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		phcEncoding.EncodeToString(h.salt),
		phcEncoding.EncodeToString(h.key),
	)
}

func parseArgon2Hash(encoded string) (argon2Hash, error) {
	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return argon2Hash{}, fmt.Errorf("%w: not an argon2id v19 hash", ErrInvalidHash)
	}

	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return argon2Hash{}, fmt.Errorf("%w: expected params, salt and key", ErrInvalidHash)
	}

	var h argon2Hash
	if _, err := fmt.Sscanf(fields[0], "m=%d,t=%d,p=%d",
		&h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: params: %v", ErrInvalidHash, err)
	}

	var err error
	if h.salt, err = phcEncoding.DecodeString(fields[1]); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if h.key, err = phcEncoding.DecodeString(fields[2]); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}
	if len(h.salt) == 0 || len(h.key) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: empty salt or key", ErrInvalidHash)
	}

	h.params.SaltLength = uint32(len(h.salt)) // #nosec G115 - decoded from a short string
	h.params.KeyLength = uint32(len(h.key))   // #nosec G115 - decoded from a short string
	return h, nil
}

func (p Argon2Params) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password+GetPepper()), salt,
		p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// Hash returns a PHC string for password using p and a fresh salt.
func (p Argon2Params) Hash(password string) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}
	return p.HashWithSalt(password, salt), nil
}

// HashWithSalt returns a PHC string for password using p and the given salt.
// New credentials should go through Hash; a reused salt is only fit for
// hashes nobody is meant to match.
func (p Argon2Params) HashWithSalt(password string, salt []byte) string {
	return argon2Hash{params: p, salt: salt, key: p.derive(password, salt)}.String()
}

// HashPassword hashes password with DefaultParams and the pepper.
func HashPassword(password string) (string, error) {
	return DefaultParams.Hash(password)
}

// VerifyPassword checks password against a stored PHC hash, using the
// settings recorded in the hash. It returns ErrPasswordMismatch for a wrong
// password and an error wrapping ErrInvalidHash for an unreadable hash.
func VerifyPassword(password, encodedHash string) error {
	h, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.params.derive(password, h.salt), h.key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// NeedsRehash reports whether a stored hash was made with settings other
// than DefaultParams. Unreadable hashes report false; VerifyPassword
// rejects them anyway.
func NeedsRehash(encodedHash string) bool {
	h, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false
	}
	return h.params != DefaultParams
}
