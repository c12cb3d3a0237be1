package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrTokenConflict is returned by ReplaceToken when the slot no longer
	// holds the expected token, usually because a concurrent refresh won.
	ErrTokenConflict = errors.New("store: token slot changed")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so nobody accidentally starts a transaction inside a
// transaction.
type Store interface {
	Principals() Principals
	Roles() Roles
	Claims() Claims
	TokenSlots() TokenSlots

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Inside fn only
	// use the repos of the Tx you were handed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetByID returns a principal by id.
	GetByID(ctx context.Context, id string) (domain.Principal, error)

	// GetByEmail looks a principal up by email, ignoring case.
	GetByEmail(ctx context.Context, email string) (domain.Principal, error)

	// Create inserts a new principal (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, p domain.Principal) error

	// UpdateSecurityStamp replaces the stamp and bumps updated_at.
	UpdateSecurityStamp(ctx context.Context, id, stamp string) error

	// UpdatePasswordHash stores a re-encoded hash of the same password.
	// The security stamp is left alone so sessions survive.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// IsEmpty returns true if there are no principals.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetByName fetches a role by its name, ignoring case.
	GetByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles ordered by name.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// ListForPrincipal returns the principal's roles ordered by name.
	ListForPrincipal(ctx context.Context, principalID string) ([]domain.Role, error)

	// AddPrincipal assigns a role to a principal.
	AddPrincipal(ctx context.Context, principalID, roleID string) error
}

type Claims interface {
	// ListForPrincipal returns custom claims in insertion order.
	ListForPrincipal(ctx context.Context, principalID string) ([]domain.Claim, error)

	// Add attaches a custom claim to a principal.
	Add(ctx context.Context, principalID string, c domain.Claim) error
}

// TokenSlots holds at most one token per (principal, provider, purpose).
type TokenSlots interface {
	// GetToken returns the slot, or ErrNotFound when it is empty.
	GetToken(ctx context.Context, principalID, provider, purpose string) (domain.TokenSlot, error)

	// SetToken writes the slot, replacing whatever it held, in one atomic step.
	SetToken(ctx context.Context, slot domain.TokenSlot) error

	// ReplaceToken writes the slot only if it currently holds expectedHash.
	// Returns ErrTokenConflict otherwise.
	ReplaceToken(ctx context.Context, expectedHash string, slot domain.TokenSlot) error

	// RemoveToken empties the slot. Removing an empty slot is not an error.
	RemoveToken(ctx context.Context, principalID, provider, purpose string) error

	// DeleteExpired removes slots that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
