package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/pkg/result"
	"github.com/stretchr/testify/require"
)

func TestPrincipalService_Get(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "a@x.io", "secret1", domain.RoleUser)

	t.Run("ok", func(t *testing.T) {
		r := f.principals.Get(ctx, p.ID)
		profile, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, "a@x.io", profile.Email)
		require.Equal(t, "Ada", profile.FirstName)
		require.Equal(t, []string{domain.RoleUser}, profile.Roles)
	})

	t.Run("not found", func(t *testing.T) {
		r := f.principals.Get(ctx, "missing")
		require.Equal(t, result.KindNotFound, r.Kind())
		require.Contains(t, r.Message(), "missing")
	})

	t.Run("failure", func(t *testing.T) {
		closed := newFixture(t)
		require.NoError(t, closed.store.Close())
		r := closed.principals.Get(ctx, p.ID)
		require.Equal(t, result.KindFailure, r.Kind())
		require.Error(t, r.Err())
	})

	t.Run("add claim", func(t *testing.T) {
		require.NoError(t, f.principals.AddClaim(ctx, p.ID, domain.Claim{Type: "tier", Value: "gold"}))
		claims, err := f.store.Claims().ListForPrincipal(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{{Type: "tier", Value: "gold"}}, claims)
	})
}
