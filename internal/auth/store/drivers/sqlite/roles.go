package sqlite

import (
	"context"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, normalized_name FROM roles WHERE normalized_name = ?`,
		domain.NormalizeRoleName(name),
	).Scan(&role.ID, &role.Name, &role.NormalizedName)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	return r.list(ctx, `SELECT id, name, normalized_name FROM roles ORDER BY name`)
}

func (r *rolesRepo) ListForPrincipal(ctx context.Context, principalID string) ([]domain.Role, error) {
	return r.list(ctx,
		`SELECT r.id, r.name, r.normalized_name
		   FROM roles r
		   JOIN principal_roles pr ON pr.role_id = r.id
		  WHERE pr.principal_id = ?
		  ORDER BY r.name`,
		principalID,
	)
}

func (r *rolesRepo) AddPrincipal(ctx context.Context, principalID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principal_roles (principal_id, role_id) VALUES (?, ?)`,
		principalID, roleID)
	return mapConstraint(err)
}

func (r *rolesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.NormalizedName); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
