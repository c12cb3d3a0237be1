package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
)

type principalsRepo struct {
	db dbtx
}

const principalColumns = `id, email, normalized_email, first_name, last_name,
	password_hash, security_stamp, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row scanner) (domain.Principal, error) {
	var p domain.Principal
	var created, updated int64
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.NormalizedEmail,
		&p.FirstName,
		&p.LastName,
		&p.PasswordHash,
		&p.SecurityStamp,
		&created,
		&updated,
	)
	if err != nil {
		return domain.Principal{}, err
	}
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r *principalsRepo) GetByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	p, err := scanPrincipal(row)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	return p, nil
}

func (r *principalsRepo) GetByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE normalized_email = ?`,
		domain.NormalizeEmail(email))
	p, err := scanPrincipal(row)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	return p, nil
}

func (r *principalsRepo) Create(ctx context.Context, p domain.Principal) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principals (`+principalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Email,
		domain.NormalizeEmail(p.Email),
		p.FirstName,
		p.LastName,
		p.PasswordHash,
		p.SecurityStamp,
		toUnix(now),
		toUnix(now),
	)
	return mapConstraint(err)
}

func (r *principalsRepo) UpdateSecurityStamp(ctx context.Context, id, stamp string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE principals SET security_stamp = ?, updated_at = ? WHERE id = ?`,
		stamp, toUnix(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE principals SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toUnix(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *principalsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM principals`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
