package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/cryptox"
)

// DefaultRefreshTokenLifespan bounds how long an unused refresh token stays valid.
const DefaultRefreshTokenLifespan = 24 * time.Hour

// RefreshTokenManager owns the single refresh token slot of each principal.
// Tokens are opaque random strings; only their fingerprint is stored, next
// to the principal's security stamp at the time of issue.
type RefreshTokenManager struct {
	Slots    store.TokenSlots
	Provider string        // defaults to domain.RefreshTokenProvider
	Purpose  string        // defaults to domain.RefreshTokenPurpose
	Lifespan time.Duration // defaults to DefaultRefreshTokenLifespan
	Clock    func() time.Time
}

// Issue generates a new refresh token and stores it in the principal's
// slot, replacing any previous token in one step.
func (m *RefreshTokenManager) Issue(ctx context.Context, p domain.Principal) (string, error) {
	token, slot, err := m.newSlot(p)
	if err != nil {
		return "", err
	}
	if err := m.Slots.SetToken(ctx, slot); err != nil {
		return "", fmt.Errorf("issue refresh token: %w", err)
	}
	return token, nil
}

// Verify reports whether presented is the principal's live refresh token.
// An empty slot, a different value, a changed security stamp or an expired
// slot all fail. Only store faults are returned as errors.
func (m *RefreshTokenManager) Verify(ctx context.Context, p domain.Principal, presented string) (bool, error) {
	if presented == "" {
		return false, nil
	}

	slot, err := m.Slots.GetToken(ctx, p.ID, m.provider(), m.purpose())
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify refresh token: %w", err)
	}

	if !cryptox.MatchesFingerprint(presented, slot.ValueHash) {
		return false, nil
	}
	if !cryptox.ConstantTimeEqual(slot.SecurityStamp, p.SecurityStamp) {
		return false, nil
	}
	if slot.Expired(m.now()) {
		return false, nil
	}
	return true, nil
}

// Rotate replaces presented with a fresh token, but only if presented is
// still the one in the slot. If a concurrent call rotated it first,
// store.ErrTokenConflict is returned and nothing is written.
func (m *RefreshTokenManager) Rotate(ctx context.Context, p domain.Principal, presented string) (string, error) {
	token, slot, err := m.newSlot(p)
	if err != nil {
		return "", err
	}
	if err := m.Slots.ReplaceToken(ctx, cryptox.FingerprintToken(presented), slot); err != nil {
		if errors.Is(err, store.ErrTokenConflict) {
			return "", err
		}
		return "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return token, nil
}

// Revoke empties the principal's slot.
func (m *RefreshTokenManager) Revoke(ctx context.Context, principalID string) error {
	return m.Slots.RemoveToken(ctx, principalID, m.provider(), m.purpose())
}

func (m *RefreshTokenManager) newSlot(p domain.Principal) (string, domain.TokenSlot, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.TokenSlot{}, err
	}
	now := m.now()
	return token, domain.TokenSlot{
		PrincipalID:   p.ID,
		Provider:      m.provider(),
		Purpose:       m.purpose(),
		ValueHash:     cryptox.FingerprintToken(token),
		SecurityStamp: p.SecurityStamp,
		ExpiresAt:     now.Add(m.lifespan()),
		CreatedAt:     now,
	}, nil
}

func (m *RefreshTokenManager) provider() string {
	if m.Provider == "" {
		return domain.RefreshTokenProvider
	}
	return m.Provider
}

func (m *RefreshTokenManager) purpose() string {
	if m.Purpose == "" {
		return domain.RefreshTokenPurpose
	}
	return m.Purpose
}

func (m *RefreshTokenManager) lifespan() time.Duration {
	if m.Lifespan <= 0 {
		return DefaultRefreshTokenLifespan
	}
	return m.Lifespan
}

func (m *RefreshTokenManager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}
