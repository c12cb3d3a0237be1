package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/google/uuid"
)

// ClaimsAssembler builds the claim set for a principal's access token.
type ClaimsAssembler struct {
	Store store.Store

	// NewJTI generates the token id. Defaults to a random UUID.
	NewJTI func() string
}

// Assemble returns sub, jti, email and uid, then the principal's stored
// claims in store order, then one role claim per role. A stored claim with
// the same type as a default one is kept alongside it, not merged.
func (a *ClaimsAssembler) Assemble(ctx context.Context, p domain.Principal) (jwtx.ClaimSet, error) {
	custom, err := a.Store.Claims().ListForPrincipal(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("assemble claims: list claims: %w", err)
	}
	roles, err := a.Store.Roles().ListForPrincipal(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("assemble claims: list roles: %w", err)
	}

	cs := make(jwtx.ClaimSet, 0, 4+len(custom)+len(roles))
	cs.Add(jwtx.ClaimSubject, p.Email)
	cs.Add(jwtx.ClaimJTI, a.jti())
	cs.Add(jwtx.ClaimEmail, p.Email)
	cs.Add(jwtx.ClaimUserID, p.ID)
	for _, c := range custom {
		cs.Add(c.Type, c.Value)
	}
	for _, r := range roles {
		cs.Add(jwtx.ClaimRole, r.Name)
	}
	return cs, nil
}

func (a *ClaimsAssembler) jti() string {
	if a.NewJTI != nil {
		return a.NewJTI()
	}
	return uuid.NewString()
}
