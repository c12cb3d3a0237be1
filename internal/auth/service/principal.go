package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	"github.com/aussiebroadwan/hotellisting/pkg/result"
)

type PrincipalService struct {
	Store store.Store
}

// Get fetches a principal's public profile.
func (s *PrincipalService) Get(ctx context.Context, id string) result.Result[domain.PrincipalProfile] {
	p, err := s.Store.Principals().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return result.NotFound[domain.PrincipalProfile](fmt.Sprintf("Principal (%s) was not found", id))
	}
	if err != nil {
		return result.Failure[domain.PrincipalProfile](err)
	}

	roles, err := s.Store.Roles().ListForPrincipal(ctx, p.ID)
	if err != nil {
		return result.Failure[domain.PrincipalProfile](err)
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return result.Ok(domain.PrincipalProfile{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Roles:     names,
	})
}

// AddClaim attaches a custom claim that is carried in every access token
// issued to the principal from now on.
func (s *PrincipalService) AddClaim(ctx context.Context, principalID string, c domain.Claim) error {
	return s.Store.Claims().Add(ctx, principalID, c)
}
