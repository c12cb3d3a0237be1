package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
)

type tokenSlotsRepo struct {
	db dbtx
}

func (r *tokenSlotsRepo) GetToken(
	ctx context.Context,
	principalID, provider, purpose string,
) (domain.TokenSlot, error) {
	slot := domain.TokenSlot{
		PrincipalID: principalID,
		Provider:    provider,
		Purpose:     purpose,
	}
	var expires, created int64
	err := r.db.QueryRowContext(ctx,
		`SELECT value_hash, security_stamp, expires_at, created_at
		   FROM token_slots
		  WHERE principal_id = ? AND provider = ? AND purpose = ?`,
		principalID, provider, purpose,
	).Scan(&slot.ValueHash, &slot.SecurityStamp, &expires, &created)
	if err != nil {
		return domain.TokenSlot{}, mapNotFound(err)
	}
	slot.ExpiresAt = fromUnix(expires)
	slot.CreatedAt = fromUnix(created)
	return slot, nil
}

// SetToken is a single upsert so there is never a moment where the slot is
// empty or holds two tokens.
func (r *tokenSlotsRepo) SetToken(ctx context.Context, slot domain.TokenSlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO token_slots
		        (principal_id, provider, purpose, value_hash, security_stamp, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (principal_id, provider, purpose) DO UPDATE SET
		        value_hash     = excluded.value_hash,
		        security_stamp = excluded.security_stamp,
		        expires_at     = excluded.expires_at,
		        created_at     = excluded.created_at`,
		slot.PrincipalID,
		slot.Provider,
		slot.Purpose,
		slot.ValueHash,
		slot.SecurityStamp,
		toUnix(slot.ExpiresAt),
		toUnix(createdAt(slot)),
	)
	return mapConstraint(err)
}

func (r *tokenSlotsRepo) ReplaceToken(ctx context.Context, expectedHash string, slot domain.TokenSlot) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE token_slots
		    SET value_hash = ?, security_stamp = ?, expires_at = ?, created_at = ?
		  WHERE principal_id = ? AND provider = ? AND purpose = ? AND value_hash = ?`,
		slot.ValueHash,
		slot.SecurityStamp,
		toUnix(slot.ExpiresAt),
		toUnix(createdAt(slot)),
		slot.PrincipalID,
		slot.Provider,
		slot.Purpose,
		expectedHash,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTokenConflict
	}
	return nil
}

func (r *tokenSlotsRepo) RemoveToken(ctx context.Context, principalID, provider, purpose string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM token_slots WHERE principal_id = ? AND provider = ? AND purpose = ?`,
		principalID, provider, purpose)
	return err
}

func (r *tokenSlotsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM token_slots WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func createdAt(slot domain.TokenSlot) time.Time {
	if slot.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return slot.CreatedAt
}
