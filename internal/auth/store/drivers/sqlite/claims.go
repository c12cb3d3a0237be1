package sqlite

import (
	"context"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
)

type claimsRepo struct {
	db dbtx
}

func (r *claimsRepo) ListForPrincipal(ctx context.Context, principalID string) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT claim_type, claim_value FROM principal_claims WHERE principal_id = ? ORDER BY id`,
		principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *claimsRepo) Add(ctx context.Context, principalID string, c domain.Claim) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principal_claims (principal_id, claim_type, claim_value) VALUES (?, ?, ?)`,
		principalID, c.Type, c.Value)
	return mapConstraint(err)
}
